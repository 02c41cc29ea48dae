package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/captainclaw/internal/domain"
)

const projectColumns = `id, name, description, system_prompt, tone, language, font_family,
	font_size, line_spacing, heading_font_size, heading_bold, created_at, updated_at`

// ProjectRepository handles project persistence
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(project *domain.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.Name, project.Description, project.SystemPrompt, project.Tone,
		project.Language, project.FontFamily, project.FontSize, project.LineSpacing,
		project.HeadingFontSize, project.HeadingBold, project.CreatedAt, project.UpdatedAt)

	return err
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(id string) (*domain.Project, error) {
	project, err := scanProject(r.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// List retrieves all projects, newest first
func (r *ProjectRepository) List() ([]*domain.Project, error) {
	rows, err := r.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// Update writes every mutable column of a project
func (r *ProjectRepository) Update(project *domain.Project) error {
	project.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE projects SET name = ?, description = ?, system_prompt = ?, tone = ?, language = ?,
			font_family = ?, font_size = ?, line_spacing = ?, heading_font_size = ?, heading_bold = ?,
			updated_at = ?
		WHERE id = ?
	`, project.Name, project.Description, project.SystemPrompt, project.Tone, project.Language,
		project.FontFamily, project.FontSize, project.LineSpacing, project.HeadingFontSize,
		project.HeadingBold, project.UpdatedAt, project.ID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("project not found: %s: %w", project.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a project; conversations, messages and files cascade
func (r *ProjectRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("project not found: %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	project := &domain.Project{}
	var description sql.NullString

	err := row.Scan(&project.ID, &project.Name, &description, &project.SystemPrompt, &project.Tone,
		&project.Language, &project.FontFamily, &project.FontSize, &project.LineSpacing,
		&project.HeadingFontSize, &project.HeadingBold, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}

	project.Description = description.String
	return project, nil
}
