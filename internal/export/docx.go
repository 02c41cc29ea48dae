package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// run formatting of one paragraph; sizes are in points
type runStyle struct {
	font        string
	size        float64
	bold        bool
	lineSpacing float64
}

// DOCX writes the transcript as a WordprocessingML package. Message bodies
// use the project font, size and line spacing.
func DOCX(w io.Writer, t Transcript) error {
	var body strings.Builder

	heading := t.Project.HeadingFontSize
	if heading <= 0 {
		heading = domain.DefaultHeadingFontSize
	}
	font := t.Project.FontFamily
	if font == "" {
		font = domain.DefaultFontFamily
	}
	size := t.Project.FontSize
	if size <= 0 {
		size = domain.DefaultFontSize
	}
	spacing := t.Project.LineSpacing
	if spacing <= 0 {
		spacing = domain.DefaultLineSpacing
	}

	writeParagraph(&body, t.Conversation.Title, runStyle{size: float64(heading), bold: t.Project.HeadingBold})
	writeParagraph(&body, "Project: "+t.Project.Name, runStyle{size: 10})
	writeParagraph(&body, "Created: "+t.createdDate(), runStyle{size: 10})
	writeParagraph(&body, "", runStyle{})

	for _, msg := range t.Messages {
		writeParagraph(&body, speaker(msg.Role), runStyle{size: 11, bold: true})
		writeParagraph(&body, msg.Content, runStyle{font: font, size: float64(size), lineSpacing: spacing})
		writeParagraph(&body, "", runStyle{})
	}

	if len(t.Files) > 0 {
		writeParagraph(&body, "", runStyle{})
		writeParagraph(&body, "Referenced Documents", runStyle{size: 12, bold: true})
		for _, f := range t.Files {
			writeParagraph(&body, "• "+f.Filename, runStyle{size: 10})
		}
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>` +
		`</w:body></w:document>`

	zw := zip.NewWriter(w)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		pw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(pw, part.content); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func writeParagraph(b *strings.Builder, text string, style runStyle) {
	b.WriteString("<w:p>")
	if style.lineSpacing > 0 {
		fmt.Fprintf(b, `<w:pPr><w:spacing w:line="%d" w:lineRule="auto"/></w:pPr>`, int(style.lineSpacing*240))
	}
	if text == "" {
		b.WriteString("</w:p>")
		return
	}

	var props strings.Builder
	if style.font != "" {
		fmt.Fprintf(&props, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/>`, escape(style.font))
	}
	if style.bold {
		props.WriteString("<w:b/>")
	}
	if style.size > 0 {
		fmt.Fprintf(&props, `<w:sz w:val="%d"/>`, int(style.size*2))
	}

	b.WriteString("<w:r>")
	if props.Len() > 0 {
		b.WriteString("<w:rPr>" + props.String() + "</w:rPr>")
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		b.WriteString(`<w:t xml:space="preserve">` + escape(line) + "</w:t>")
	}
	b.WriteString("</w:r></w:p>")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
