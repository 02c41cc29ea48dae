package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/captainclaw/internal/domain"
)

const fileColumns = `id, project_id, filename, file_path, file_type, mime_type, file_size,
	extracted_text, extraction_status, extraction_error, created_at`

// FileRepository handles uploaded file persistence
type FileRepository struct {
	db *DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a file record
func (r *FileRepository) Create(file *domain.File) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	file.CreatedAt = time.Now()
	if file.ExtractionStatus == "" {
		file.ExtractionStatus = domain.ExtractionOK
	}

	_, err := r.db.Exec(`
		INSERT INTO files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, file.ID, file.ProjectID, file.Filename, file.FilePath, file.FileType, file.MimeType,
		file.FileSize, file.ExtractedText, string(file.ExtractionStatus), file.ExtractionError,
		file.CreatedAt)

	return err
}

// Get retrieves a file by ID
func (r *FileRepository) Get(id string) (*domain.File, error) {
	file, err := scanFile(r.db.QueryRow(`SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetMany retrieves the files with the given IDs. Missing IDs are skipped;
// the result follows the order of ids.
func (r *FileRepository) GetMany(ids []string) ([]*domain.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Query(`SELECT `+fileColumns+` FROM files WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.File, len(ids))
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		byID[file.ID] = file
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	files := make([]*domain.File, 0, len(byID))
	for _, id := range ids {
		if file, ok := byID[id]; ok {
			files = append(files, file)
		}
	}
	return files, nil
}

// ListByProject retrieves a project's files, newest first
func (r *FileRepository) ListByProject(projectID string) ([]*domain.File, error) {
	return r.list(`SELECT `+fileColumns+` FROM files WHERE project_id = ? ORDER BY created_at DESC`, projectID)
}

// List retrieves every file
func (r *FileRepository) List() ([]*domain.File, error) {
	return r.list(`SELECT ` + fileColumns + ` FROM files ORDER BY created_at DESC`)
}

// Delete deletes a file record
func (r *FileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("file not found: %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *FileRepository) list(query string, args ...any) ([]*domain.File, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func scanFile(row rowScanner) (*domain.File, error) {
	file := &domain.File{}
	var mimeType, extractionError sql.NullString
	var status string

	err := row.Scan(&file.ID, &file.ProjectID, &file.Filename, &file.FilePath, &file.FileType,
		&mimeType, &file.FileSize, &file.ExtractedText, &status, &extractionError, &file.CreatedAt)
	if err != nil {
		return nil, err
	}

	file.MimeType = mimeType.String
	file.ExtractionStatus = domain.ExtractionStatus(status)
	file.ExtractionError = extractionError.String
	return file, nil
}
