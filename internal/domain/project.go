package domain

import "time"

// Project groups conversations and files under one system prompt and
// document formatting profile
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	SystemPrompt    string    `json:"system_prompt"`
	Tone            string    `json:"tone"`
	Language        string    `json:"language"`
	FontFamily      string    `json:"font_family"`
	FontSize        int       `json:"font_size"`
	LineSpacing     float64   `json:"line_spacing"`
	HeadingFontSize int       `json:"heading_font_size"`
	HeadingBold     bool      `json:"heading_bold"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Project defaults applied on create
const (
	DefaultTone            = "neutral"
	DefaultLanguage        = "Swedish"
	DefaultFontFamily      = "Times New Roman"
	DefaultFontSize        = 12
	DefaultLineSpacing     = 1.5
	DefaultHeadingFontSize = 14
)

// CreateProjectRequest is the request to create a project
type CreateProjectRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description,omitempty"`
	SystemPrompt    string  `json:"system_prompt,omitempty"`
	Tone            string  `json:"tone,omitempty"`
	Language        string  `json:"language,omitempty"`
	FontFamily      string  `json:"font_family,omitempty"`
	FontSize        int     `json:"font_size,omitempty"`
	LineSpacing     float64 `json:"line_spacing,omitempty"`
	HeadingFontSize int     `json:"heading_font_size,omitempty"`
	HeadingBold     *bool   `json:"heading_bold,omitempty"`
}

// UpdateProjectRequest is a partial update; nil fields are left unchanged
type UpdateProjectRequest struct {
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	SystemPrompt    *string  `json:"system_prompt,omitempty"`
	Tone            *string  `json:"tone,omitempty"`
	Language        *string  `json:"language,omitempty"`
	FontFamily      *string  `json:"font_family,omitempty"`
	FontSize        *int     `json:"font_size,omitempty"`
	LineSpacing     *float64 `json:"line_spacing,omitempty"`
	HeadingFontSize *int     `json:"heading_font_size,omitempty"`
	HeadingBold     *bool    `json:"heading_bold,omitempty"`
}

// Empty reports whether the update carries no fields
func (r *UpdateProjectRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.SystemPrompt == nil &&
		r.Tone == nil && r.Language == nil && r.FontFamily == nil &&
		r.FontSize == nil && r.LineSpacing == nil && r.HeadingFontSize == nil &&
		r.HeadingBold == nil
}
