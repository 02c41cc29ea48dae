package service

import (
	"context"

	"github.com/liliang-cn/captainclaw/internal/repository"
	"github.com/liliang-cn/captainclaw/internal/search"
)

// SearchService keeps the fuzzy index in sync with the repositories
type SearchService struct {
	projectRepo *repository.ProjectRepository
	fileRepo    *repository.FileRepository
	index       *search.Index
}

// NewSearchService creates a new search service over an empty index
func NewSearchService(projectRepo *repository.ProjectRepository, fileRepo *repository.FileRepository) *SearchService {
	return &SearchService{
		projectRepo: projectRepo,
		fileRepo:    fileRepo,
		index:       search.NewIndex(),
	}
}

// Rebuild reloads every project and file into the index
func (s *SearchService) Rebuild() error {
	projects, err := s.projectRepo.List()
	if err != nil {
		return err
	}
	files, err := s.fileRepo.List()
	if err != nil {
		return err
	}
	s.index.Rebuild(projects, files)
	return nil
}

// Search runs a fuzzy query
func (s *SearchService) Search(ctx context.Context, query string, limit int) []search.Result {
	results := s.index.Search(query, limit)
	if results == nil {
		return []search.Result{}
	}
	return results
}
