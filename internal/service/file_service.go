package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/liliang-cn/captainclaw/internal/config"
	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/extract"
	"github.com/liliang-cn/captainclaw/internal/metrics"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"go.uber.org/zap"
)

// FileService handles document uploads and their extracted text
type FileService struct {
	projectRepo *repository.ProjectRepository
	fileRepo    *repository.FileRepository
	extractor   *extract.Extractor
	index       IndexRebuilder
	cfg         *config.Config
	logger      *zap.Logger
}

// NewFileService creates a new file service
func NewFileService(
	projectRepo *repository.ProjectRepository,
	fileRepo *repository.FileRepository,
	extractor *extract.Extractor,
	index IndexRebuilder,
	cfg *config.Config,
	logger *zap.Logger,
) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{
		projectRepo: projectRepo,
		fileRepo:    fileRepo,
		extractor:   extractor,
		index:       index,
		cfg:         cfg,
		logger:      logger,
	}
}

// Upload stores a multipart upload for a project
func (s *FileService) Upload(ctx context.Context, projectID string, file *multipart.FileHeader) (*domain.File, error) {
	maxBytes := s.cfg.Storage.MaxUploadMB * 1024 * 1024
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d MB", domain.ErrInvalidRequest, s.cfg.Storage.MaxUploadMB)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.Store(ctx, projectID, file.Filename, src)
}

// Store saves the content under a generated name, extracts its text and
// records it. A file whose text cannot be read is still stored, with the
// failure sentinel as its text.
func (s *FileService) Store(ctx context.Context, projectID, filename string, src io.Reader) (*domain.File, error) {
	project, err := s.projectRepo.Get(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}

	fileType := strings.ToLower(filepath.Ext(filename))
	format, err := extract.FormatOf(fileType)
	if err != nil {
		return nil, fmt.Errorf("%w. Allowed: PDF, Excel, Word", err)
	}

	if err := os.MkdirAll(s.cfg.Storage.Uploads, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	storagePath := filepath.Join(s.cfg.Storage.Uploads, uuid.New().String()+fileType)

	size, err := writeFile(storagePath, src)
	if err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	var mimeType string
	if mt, err := mimetype.DetectFile(storagePath); err == nil {
		mimeType = mt.String()
	}

	doc := s.extractor.ExtractDocument(ctx, storagePath, fileType)
	metrics.ExtractionCount.WithLabelValues(string(format), string(doc.Status)).Inc()

	record := &domain.File{
		ProjectID:        projectID,
		Filename:         filename,
		FilePath:         storagePath,
		FileType:         fileType,
		MimeType:         mimeType,
		FileSize:         size,
		ExtractedText:    doc.Text,
		ExtractionStatus: doc.Status,
		ExtractionError:  doc.Reason,
	}
	if err := s.fileRepo.Create(record); err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", record.ID),
		zap.String("project_id", projectID),
		zap.String("filename", filename),
		zap.String("mime_type", mimeType),
		zap.String("extraction", string(doc.Status)),
	)

	s.rebuildIndex()
	return record, nil
}

func writeFile(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create storage file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return 0, fmt.Errorf("failed to save file: %w", err)
	}
	return n, nil
}

func (s *FileService) GetFile(ctx context.Context, id string) (*domain.File, error) {
	file, err := s.fileRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	return file, nil
}

// FileSummary is a short preview of a file's extracted text
type FileSummary struct {
	ID       string            `json:"id"`
	Filename string            `json:"filename"`
	Summary  string            `json:"summary"`
	Stats    extract.TextStats `json:"metadata"`
}

// Summarize returns the text preview and size measures of a file
func (s *FileService) Summarize(ctx context.Context, id string) (*FileSummary, error) {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FileSummary{
		ID:       file.ID,
		Filename: file.Filename,
		Summary:  extract.Summarize(file.ExtractedText, extract.DefaultSummaryLength),
		Stats:    extract.Stats(file.ExtractedText),
	}, nil
}

func (s *FileService) ListFiles(ctx context.Context, projectID string) ([]*domain.File, error) {
	return s.fileRepo.ListByProject(projectID)
}

// DeleteFile removes the record and the stored upload
func (s *FileService) DeleteFile(ctx context.Context, id string) error {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return err
	}

	if err := os.Remove(file.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}
	if err := s.fileRepo.Delete(id); err != nil {
		return err
	}

	s.rebuildIndex()
	return nil
}

func (s *FileService) rebuildIndex() {
	if s.index == nil {
		return
	}
	if err := s.index.Rebuild(); err != nil {
		s.logger.Warn("failed to rebuild search index", zap.Error(err))
	}
}
