// Package backup exports one user's categories and flashcards as NDJSON and
// imports them back, into the same or another account.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
)

const (
	defaultBatchSize = 500
	formatVersion    = 1

	recordMeta       = "meta"
	recordCategory   = "categories"
	recordFlashcard  = "flashcards"
	exportOrder      = "created_at asc, id asc"
	maxRecordBytes   = 1 << 20
	initialLineBytes = 64 << 10
)

var errMissingMeta = errors.New("backup: first record must be meta")

// ProgressReporter receives per-table progress during export and import.
type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

// Service moves a user's data between a table store and a byte stream.
type Service struct {
	categories repository.CategoryRepository
	flashcards repository.FlashcardRepository
	batchSize  int
	clock      func() time.Time
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService builds a backup service over the given repositories.
func NewService(categories repository.CategoryRepository, flashcards repository.FlashcardRepository, opts ...Option) *Service {
	svc := &Service{
		categories: categories,
		flashcards: flashcards,
		batchSize:  defaultBatchSize,
		clock:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type runConfig struct {
	reporter ProgressReporter
}

type RunOption func(*runConfig)

// WithProgressReporter registers a reporter for progress callbacks.
func WithProgressReporter(reporter ProgressReporter) RunOption {
	return func(cfg *runConfig) {
		if reporter != nil {
			cfg.reporter = reporter
		}
	}
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := runConfig{reporter: noopProgress{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Summary counts what a run wrote or skipped.
type Summary struct {
	Categories        int `json:"categories"`
	ReusedCategories  int `json:"reused_categories"`
	Flashcards        int `json:"flashcards"`
	SkippedFlashcards int `json:"skipped_flashcards"`
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type      string          `json:"type"`
	Version   int             `json:"version"`
	RowCounts map[string]int  `json:"row_counts"`
	Payload   json.RawMessage `json:"payload"`
}

type categoryRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type flashcardRow struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	IsKnown    bool      `json:"is_known"`
	IsReviewed bool      `json:"is_reviewed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Export writes a meta record followed by every category, then every
// flashcard, of userID.
func (s *Service) Export(ctx context.Context, w io.Writer, userID string, opts ...RunOption) (Summary, error) {
	cfg := newRunConfig(opts)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Summary{}, entity.ErrInvalidUserID
	}

	_, categoryTotal, err := s.categories.List(ctx, &repository.ListCategoryQuery{
		UserID:     userID,
		Pagination: repository.Pagination{PageNo: 1, PageSize: 1},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("count categories: %w", err)
	}
	_, flashcardTotal, err := s.flashcards.List(ctx, &repository.ListFlashcardQuery{
		UserID:     userID,
		Pagination: repository.Pagination{PageNo: 1, PageSize: 1},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("count flashcards: %w", err)
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := s.clock()
	meta := record{
		Type:       recordMeta,
		Version:    formatVersion,
		ExportedAt: &now,
		UserID:     userID,
		RowCounts: map[string]int{
			recordCategory:  int(categoryTotal),
			recordFlashcard: int(flashcardTotal),
		},
	}
	if err := writeRecord(writer, meta); err != nil {
		return Summary{}, err
	}

	var summary Summary

	cfg.reporter.StartTable(recordCategory, int(categoryTotal))
	err = s.eachCategoryBatch(ctx, userID, func(batch []entity.Category) error {
		for _, c := range batch {
			row := categoryRow{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
			if err := writeRecord(writer, record{Type: recordCategory, Payload: row}); err != nil {
				return err
			}
		}
		summary.Categories += len(batch)
		cfg.reporter.Increment(recordCategory, len(batch))
		return nil
	})
	if err != nil {
		return summary, err
	}
	cfg.reporter.FinishTable(recordCategory)

	cfg.reporter.StartTable(recordFlashcard, int(flashcardTotal))
	err = s.eachFlashcardBatch(ctx, userID, "", func(batch []entity.Flashcard) error {
		for _, c := range batch {
			row := flashcardRow{
				ID:         c.ID,
				CategoryID: c.CategoryID,
				Front:      c.Front,
				Back:       c.Back,
				IsKnown:    c.IsKnown,
				IsReviewed: c.IsReviewed,
				CreatedAt:  c.CreatedAt,
			}
			if err := writeRecord(writer, record{Type: recordFlashcard, Payload: row}); err != nil {
				return err
			}
		}
		summary.Flashcards += len(batch)
		cfg.reporter.Increment(recordFlashcard, len(batch))
		return nil
	})
	if err != nil {
		return summary, err
	}
	cfg.reporter.FinishTable(recordFlashcard)

	return summary, writer.Flush()
}

// Import reads an export into userID's account. Categories are matched by
// name and reused; flashcards keep their known and reviewed flags. A
// flashcard whose front and back already exist in its target category is
// skipped, so importing the same file twice adds nothing.
func (s *Service) Import(ctx context.Context, r io.Reader, userID string, opts ...RunOption) (Summary, error) {
	cfg := newRunConfig(opts)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Summary{}, entity.ErrInvalidUserID
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBytes), maxRecordBytes)

	var (
		summary    Summary
		metaSeen   bool
		current    string
		counts     map[string]int
		categoryOf = make(map[string]string)
		existing   = make(map[string]map[string]struct{})
	)
	switchTable := func(table string) {
		if current == table {
			return
		}
		if current != "" {
			cfg.reporter.FinishTable(current)
		}
		current = table
		cfg.reporter.StartTable(table, counts[table])
	}

	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return summary, fmt.Errorf("decode record on line %d: %w", line, err)
		}

		if !metaSeen {
			if rec.Type != recordMeta {
				return summary, errMissingMeta
			}
			if rec.Version != formatVersion {
				return summary, fmt.Errorf("backup: unsupported format version %d", rec.Version)
			}
			metaSeen = true
			counts = rec.RowCounts
			continue
		}
		if len(rec.Payload) == 0 {
			return summary, fmt.Errorf("backup: missing payload on line %d", line)
		}

		switch rec.Type {
		case recordCategory:
			switchTable(recordCategory)
			var row categoryRow
			if err := json.Unmarshal(rec.Payload, &row); err != nil {
				return summary, fmt.Errorf("decode category on line %d: %w", line, err)
			}
			id, reused, err := s.importCategory(ctx, userID, row)
			if err != nil {
				return summary, fmt.Errorf("import category %q: %w", row.Name, err)
			}
			categoryOf[row.ID] = id
			if reused {
				summary.ReusedCategories++
			} else {
				summary.Categories++
			}
			cfg.reporter.Increment(recordCategory, 1)

		case recordFlashcard:
			switchTable(recordFlashcard)
			var row flashcardRow
			if err := json.Unmarshal(rec.Payload, &row); err != nil {
				return summary, fmt.Errorf("decode flashcard on line %d: %w", line, err)
			}
			categoryID, ok := categoryOf[row.CategoryID]
			if !ok {
				return summary, fmt.Errorf("backup: flashcard on line %d references unknown category %q", line, row.CategoryID)
			}
			seen, err := s.existingCards(ctx, userID, categoryID, existing)
			if err != nil {
				return summary, err
			}
			key := cardKey(row.Front, row.Back)
			if _, dup := seen[key]; dup {
				summary.SkippedFlashcards++
				cfg.reporter.Increment(recordFlashcard, 1)
				continue
			}
			card := &entity.Flashcard{
				UserID:     userID,
				CategoryID: categoryID,
				Front:      row.Front,
				Back:       row.Back,
				IsKnown:    row.IsKnown,
				IsReviewed: row.IsReviewed,
				CreatedAt:  row.CreatedAt,
			}
			if _, err := s.flashcards.Create(ctx, card); err != nil {
				return summary, fmt.Errorf("import flashcard on line %d: %w", line, err)
			}
			seen[key] = struct{}{}
			summary.Flashcards++
			cfg.reporter.Increment(recordFlashcard, 1)

		default:
			// Unknown record types from newer writers are ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read backup: %w", err)
	}
	if !metaSeen {
		return summary, errMissingMeta
	}
	if current != "" {
		cfg.reporter.FinishTable(current)
	}
	return summary, nil
}

func (s *Service) importCategory(ctx context.Context, userID string, row categoryRow) (string, bool, error) {
	found, err := s.categories.FindByName(ctx, userID, row.Name)
	if err != nil {
		return "", false, err
	}
	if found != nil {
		return found.ID, true, nil
	}
	created, err := s.categories.Create(ctx, &entity.Category{UserID: userID, Name: row.Name, CreatedAt: row.CreatedAt})
	if errors.Is(err, entity.ErrDuplicateCategory) {
		// Lost a race with a concurrent create of the same name.
		found, err = s.categories.FindByName(ctx, userID, row.Name)
		if err != nil {
			return "", false, err
		}
		if found != nil {
			return found.ID, true, nil
		}
		return "", false, entity.ErrDuplicateCategory
	}
	if err != nil {
		return "", false, err
	}
	return created.ID, false, nil
}

// existingCards loads the front/back keys of a target category once.
func (s *Service) existingCards(ctx context.Context, userID, categoryID string, cache map[string]map[string]struct{}) (map[string]struct{}, error) {
	if seen, ok := cache[categoryID]; ok {
		return seen, nil
	}
	seen := make(map[string]struct{})
	err := s.eachFlashcardBatch(ctx, userID, categoryID, func(batch []entity.Flashcard) error {
		for _, c := range batch {
			seen[cardKey(c.Front, c.Back)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load flashcards of category %s: %w", categoryID, err)
	}
	cache[categoryID] = seen
	return seen, nil
}

func (s *Service) eachCategoryBatch(ctx context.Context, userID string, fn func([]entity.Category) error) error {
	for page := int32(1); ; page++ {
		items, _, err := s.categories.List(ctx, &repository.ListCategoryQuery{
			UserID:      userID,
			Pagination:  repository.Pagination{PageNo: page, PageSize: int32(s.batchSize)},
			FilterOrder: repository.FilterOrder{OrderBy: exportOrder},
		})
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if len(items) > 0 {
			if err := fn(items); err != nil {
				return err
			}
		}
		if len(items) < s.batchSize {
			return nil
		}
	}
}

func (s *Service) eachFlashcardBatch(ctx context.Context, userID, categoryID string, fn func([]entity.Flashcard) error) error {
	for page := int32(1); ; page++ {
		items, _, err := s.flashcards.List(ctx, &repository.ListFlashcardQuery{
			UserID:      userID,
			CategoryID:  categoryID,
			Pagination:  repository.Pagination{PageNo: page, PageSize: int32(s.batchSize)},
			FilterOrder: repository.FilterOrder{OrderBy: exportOrder},
		})
		if err != nil {
			return fmt.Errorf("list flashcards: %w", err)
		}
		if len(items) > 0 {
			if err := fn(items); err != nil {
				return err
			}
		}
		if len(items) < s.batchSize {
			return nil
		}
	}
}

func cardKey(front, back string) string {
	return strings.TrimSpace(front) + "\x00" + strings.TrimSpace(back)
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", rec.Type, err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s record: %w", rec.Type, err)
	}
	return nil
}
