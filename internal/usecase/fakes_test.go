package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
)

type fakeCategoryRepo struct {
	mu    sync.RWMutex
	seq   int
	items map[string]*entity.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{items: make(map[string]*entity.Category)}
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *entity.Category) (*entity.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lookupLocked(c.UserID, c.Name); ok {
		return nil, entity.ErrDuplicateCategory
	}
	r.seq++
	copy := *c
	copy.ID = fmt.Sprintf("cat-%d", r.seq)
	r.items[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, userID, id string) (*entity.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrCategoryNotFound
	}
	out := *item
	return &out, nil
}

func (r *fakeCategoryRepo) FindByName(ctx context.Context, userID, name string) (*entity.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if item, ok := r.lookupLocked(userID, name); ok {
		out := *item
		return &out, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) List(ctx context.Context, query *repository.ListCategoryQuery) ([]entity.Category, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Category
	for _, item := range r.items {
		if item.UserID == query.UserID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeCategoryRepo) Rename(ctx context.Context, userID, id, name string) (*entity.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrCategoryNotFound
	}
	if other, ok := r.lookupLocked(userID, name); ok && other.ID != id {
		return nil, entity.ErrDuplicateCategory
	}
	item.Name = name
	out := *item
	return &out, nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return entity.ErrCategoryNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeCategoryRepo) lookupLocked(userID, name string) (*entity.Category, bool) {
	for _, item := range r.items {
		if item.UserID == userID && item.Name == name {
			return item, true
		}
	}
	return nil, false
}

type fakeFlashcardRepo struct {
	mu    sync.RWMutex
	seq   int
	items map[string]*entity.Flashcard
	// calls records the order of mutating calls.
	calls []string
}

func newFakeFlashcardRepo() *fakeFlashcardRepo {
	return &fakeFlashcardRepo{items: make(map[string]*entity.Flashcard)}
}

func (r *fakeFlashcardRepo) Create(ctx context.Context, f *entity.Flashcard) (*entity.Flashcard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := *f
	copy.ID = fmt.Sprintf("card-%d", r.seq)
	r.items[copy.ID] = &copy
	r.calls = append(r.calls, "create")
	out := copy
	return &out, nil
}

func (r *fakeFlashcardRepo) GetByID(ctx context.Context, userID, id string) (*entity.Flashcard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrFlashcardNotFound
	}
	out := *item
	return &out, nil
}

func (r *fakeFlashcardRepo) List(ctx context.Context, query *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Flashcard
	for _, item := range r.items {
		if item.UserID != query.UserID {
			continue
		}
		if query.CategoryID != "" && item.CategoryID != query.CategoryID {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeFlashcardRepo) Update(ctx context.Context, userID, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrFlashcardNotFound
	}
	updated := patch.Apply(*item)
	updated.UpdatedAt = time.Now()
	r.items[id] = &updated
	r.calls = append(r.calls, "update")
	out := updated
	return &out, nil
}

func (r *fakeFlashcardRepo) UpdateByCategory(ctx context.Context, userID, categoryID string, patch entity.FlashcardPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, item := range r.items {
		if item.UserID == userID && item.CategoryID == categoryID {
			updated := patch.Apply(*item)
			r.items[id] = &updated
			n++
		}
	}
	r.calls = append(r.calls, "update_by_category")
	return n, nil
}

func (r *fakeFlashcardRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return entity.ErrFlashcardNotFound
	}
	delete(r.items, id)
	r.calls = append(r.calls, "delete")
	return nil
}

func (r *fakeFlashcardRepo) DeleteByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, item := range r.items {
		if item.UserID == userID && item.CategoryID == categoryID {
			delete(r.items, id)
			n++
		}
	}
	r.calls = append(r.calls, "delete_by_category")
	return n, nil
}

func (r *fakeFlashcardRepo) countInCategory(categoryID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, item := range r.items {
		if item.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// guardedCategoryRepo refuses to delete a category that still has
// flashcards, mimicking the store's foreign key.
type guardedCategoryRepo struct {
	*fakeCategoryRepo
	cards *fakeFlashcardRepo
}

func (r *guardedCategoryRepo) Delete(ctx context.Context, userID, id string) error {
	if r.cards.countInCategory(id) > 0 {
		return entity.NewStoreError("delete category", entity.ErrValidationRejected, "category still has flashcards", nil)
	}
	return r.fakeCategoryRepo.Delete(ctx, userID, id)
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}
