package export

import (
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/liliang-cn/captainclaw/internal/domain"
)

// PDF writes the transcript as a PDF document
func PDF(w io.Writer, t Transcript) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.SetTitle(t.Conversation.Title, true)
	doc.AddPage()

	// core fonts are cp1252
	tr := doc.UnicodeTranslatorFromDescriptor("")

	heading := float64(domain.DefaultHeadingFontSize)
	if t.Project.HeadingFontSize > 0 {
		heading = float64(t.Project.HeadingFontSize)
	}

	doc.SetFont("Helvetica", "B", heading)
	doc.MultiCell(0, 8, tr(t.Conversation.Title), "", "C", false)
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, tr("Project: "+t.Project.Name), "", "L", false)
	doc.MultiCell(0, 5, tr("Created: "+t.createdDate()), "", "L", false)
	doc.Ln(4)

	for _, msg := range t.Messages {
		style := "U"
		if msg.Role == domain.RoleUser {
			style = "BU"
		}
		doc.SetFont("Helvetica", style, 11)
		doc.MultiCell(0, 6, speaker(msg.Role), "", "L", false)

		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, tr(msg.Content), "", "L", false)
		doc.Ln(3)
	}

	if len(t.Files) > 0 {
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 12)
		doc.MultiCell(0, 6, "Referenced Documents", "", "L", false)
		doc.Ln(2)
		doc.SetFont("Helvetica", "", 10)
		for _, f := range t.Files {
			doc.MultiCell(0, 5, tr("- "+f.Filename), "", "L", false)
		}
	}

	return doc.Output(w)
}
