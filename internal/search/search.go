// Package search keeps an in-memory fuzzy index over projects and files.
package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/sahilm/fuzzy"
)

// MinQueryLength is the shortest query that is matched
const MinQueryLength = 2

// Kind of an indexed item
type Kind string

const (
	KindProject Kind = "project"
	KindFile    Kind = "file"
)

// Result is one fuzzy match
type Result struct {
	Kind       Kind   `json:"type"`
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	MatchedKey string `json:"matched_key"`
	Score      int    `json:"score"`
}

type field struct {
	key   string
	value string
}

type entry struct {
	kind      Kind
	id        string
	projectID string
	title     string
	fields    []field
}

// Index is safe for concurrent use. Rebuild swaps the whole item set.
type Index struct {
	mu      sync.RWMutex
	entries []entry
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{}
}

// Rebuild replaces the indexed items
func (i *Index) Rebuild(projects []*domain.Project, files []*domain.File) {
	entries := make([]entry, 0, len(projects)+len(files))
	for _, p := range projects {
		entries = append(entries, entry{
			kind:      KindProject,
			id:        p.ID,
			projectID: p.ID,
			title:     p.Name,
			fields: []field{
				{key: "name", value: p.Name},
				{key: "description", value: p.Description},
				{key: "system_prompt", value: p.SystemPrompt},
			},
		})
	}
	for _, f := range files {
		entries = append(entries, entry{
			kind:      KindFile,
			id:        f.ID,
			projectID: f.ProjectID,
			title:     f.Filename,
			fields: []field{
				{key: "filename", value: f.Filename},
				{key: "file_type", value: f.FileType},
				{key: "extracted_text", value: f.ExtractedText},
			},
		})
	}

	i.mu.Lock()
	i.entries = entries
	i.mu.Unlock()
}

// Len returns the number of indexed items
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// fieldSource exposes one key of every entry to the matcher
type fieldSource struct {
	entries []entry
	field   int
}

func (s fieldSource) String(i int) string {
	return strings.ToLower(s.entries[i].fields[s.field].value)
}

func (s fieldSource) Len() int {
	return len(s.entries)
}

// Search returns items matching query, best score first. Each item appears
// once with the score of its best matching key. limit <= 0 means no limit.
func (i *Index) Search(query string, limit int) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < MinQueryLength {
		return nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	best := make(map[int]Result)
	// projects and files expose three keys each
	for f := 0; f < 3; f++ {
		for _, match := range fuzzy.FindFrom(query, fieldSource{entries: i.entries, field: f}) {
			e := i.entries[match.Index]
			if r, ok := best[match.Index]; ok && r.Score >= match.Score {
				continue
			}
			best[match.Index] = Result{
				Kind:       e.kind,
				ID:         e.id,
				ProjectID:  e.projectID,
				Title:      e.title,
				MatchedKey: e.fields[f].key,
				Score:      match.Score,
			}
		}
	}

	results := make([]Result, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		if results[a].Kind != results[b].Kind {
			return results[a].Kind > results[b].Kind
		}
		return results[a].Title < results[b].Title
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
