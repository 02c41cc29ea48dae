package domain

import "time"

// ExtractionStatus records whether text extraction succeeded
type ExtractionStatus string

const (
	ExtractionOK     ExtractionStatus = "ok"
	ExtractionFailed ExtractionStatus = "failed"
)

// ExtractedDocument is produced once per upload and read-only afterwards.
// On failure Text carries the placeholder sentinel and Reason the cause.
type ExtractedDocument struct {
	SourcePath   string           `json:"source_path"`
	DeclaredType string           `json:"declared_type"`
	Text         string           `json:"text"`
	Status       ExtractionStatus `json:"status"`
	Reason       string           `json:"reason,omitempty"`
}

// Failed reports whether extraction broke
func (d ExtractedDocument) Failed() bool {
	return d.Status == ExtractionFailed
}

// File represents an uploaded document attached to a project
type File struct {
	ID               string           `json:"id"`
	ProjectID        string           `json:"project_id"`
	Filename         string           `json:"filename"`
	FilePath         string           `json:"file_path"`
	FileType         string           `json:"file_type"`
	MimeType         string           `json:"mime_type,omitempty"`
	FileSize         int64            `json:"file_size"`
	ExtractedText    string           `json:"extracted_text"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	ExtractionError  string           `json:"extraction_error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ExportRequest is the body for transcript export
type ExportRequest struct {
	IncludeFiles bool `json:"include_files"`
}
