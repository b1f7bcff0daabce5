package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
)

// CreateFlashcardInput describes a new flashcard. The category is resolved by
// CategoryID when set, otherwise by CategoryName, creating the category when
// the user has none with that name.
type CreateFlashcardInput struct {
	Front        string
	Back         string
	CategoryID   string
	CategoryName string
}

// FlashcardUsecase encapsulates business logic for a user's flashcards.
type FlashcardUsecase interface {
	CreateFlashcard(ctx context.Context, userID string, in CreateFlashcardInput) (*entity.Flashcard, error)
	GetFlashcard(ctx context.Context, userID, id string) (*entity.Flashcard, error)
	ListFlashcards(ctx context.Context, query *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error)
	EditFlashcard(ctx context.Context, userID, id, front, back string) (*entity.Flashcard, error)
	UpdateFlashcard(ctx context.Context, userID, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error)
	UpdateCategoryFlags(ctx context.Context, userID, categoryID string, patch entity.FlashcardPatch) (int64, error)
	ResetCategory(ctx context.Context, userID, categoryID string) (int64, error)
	DeleteFlashcard(ctx context.Context, userID, id string) error
	DeleteByCategory(ctx context.Context, userID, categoryID string) (int64, error)
}

// NewFlashcardUsecase wires the repositories with default behaviour.
func NewFlashcardUsecase(flashcards repository.FlashcardRepository, categories repository.CategoryRepository) FlashcardUsecase {
	return &flashcardUsecase{
		flashcards: flashcards,
		categories: categories,
		clock:      time.Now,
	}
}

type flashcardUsecase struct {
	flashcards repository.FlashcardRepository
	categories repository.CategoryRepository
	clock      func() time.Time
}

func (u *flashcardUsecase) CreateFlashcard(ctx context.Context, userID string, in CreateFlashcardInput) (*entity.Flashcard, error) {
	card := entity.Flashcard{UserID: userID, Front: in.Front, Back: in.Back}
	now := u.clock()
	card.Normalize(now)
	if !nonBlank(card.Front) || !nonBlank(card.Back) {
		return nil, entity.ErrInvalidFlashcardText
	}

	category, err := u.resolveCategory(ctx, userID, in, now)
	if err != nil {
		return nil, err
	}
	card.CategoryID = category.ID

	if err := card.Validate(); err != nil {
		return nil, err
	}
	return u.flashcards.Create(ctx, &card)
}

// resolveCategory reuses a same-named category before creating a new one.
func (u *flashcardUsecase) resolveCategory(ctx context.Context, userID string, in CreateFlashcardInput, now time.Time) (*entity.Category, error) {
	if id := strings.TrimSpace(in.CategoryID); id != "" {
		return u.categories.GetByID(ctx, userID, id)
	}

	name := entity.NormalizeCategoryName(in.CategoryName)
	if err := entity.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	existing, err := u.categories.FindByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	category := entity.Category{UserID: userID, Name: name}
	category.Normalize(now)
	created, err := u.categories.Create(ctx, &category)
	if errors.Is(err, entity.ErrDuplicateCategory) {
		// lost a race with a concurrent create of the same name
		winner, err := u.categories.FindByName(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			// and the winner was deleted again before we could see it
			return nil, entity.ErrDuplicateCategory
		}
		return winner, nil
	}
	return created, err
}

func (u *flashcardUsecase) GetFlashcard(ctx context.Context, userID, id string) (*entity.Flashcard, error) {
	if strings.TrimSpace(id) == "" {
		return nil, entity.ErrInvalidFlashcardID
	}
	return u.flashcards.GetByID(ctx, userID, id)
}

func (u *flashcardUsecase) ListFlashcards(ctx context.Context, query *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error) {
	if query == nil || strings.TrimSpace(query.UserID) == "" {
		return nil, 0, entity.ErrInvalidUserID
	}
	return u.flashcards.List(ctx, query)
}

func (u *flashcardUsecase) EditFlashcard(ctx context.Context, userID, id, front, back string) (*entity.Flashcard, error) {
	return u.UpdateFlashcard(ctx, userID, id, entity.FlashcardPatch{Front: &front, Back: &back})
}

func (u *flashcardUsecase) UpdateFlashcard(ctx context.Context, userID, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error) {
	if strings.TrimSpace(id) == "" {
		return nil, entity.ErrInvalidFlashcardID
	}
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		if _, err := u.categories.GetByID(ctx, userID, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	return u.flashcards.Update(ctx, userID, id, patch)
}

// UpdateCategoryFlags bulk-updates the learning flags of a category. Text and
// category moves are not allowed in bulk.
func (u *flashcardUsecase) UpdateCategoryFlags(ctx context.Context, userID, categoryID string, patch entity.FlashcardPatch) (int64, error) {
	if strings.TrimSpace(categoryID) == "" {
		return 0, entity.ErrInvalidCategoryID
	}
	if patch.Front != nil || patch.Back != nil || patch.CategoryID != nil {
		return 0, entity.ErrValidationRejected
	}
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	return u.flashcards.UpdateByCategory(ctx, userID, categoryID, patch)
}

func (u *flashcardUsecase) ResetCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	return u.UpdateCategoryFlags(ctx, userID, categoryID, entity.ResetPatch())
}

func (u *flashcardUsecase) DeleteFlashcard(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(id) == "" {
		return entity.ErrInvalidFlashcardID
	}
	return u.flashcards.Delete(ctx, userID, id)
}

func (u *flashcardUsecase) DeleteByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	if strings.TrimSpace(categoryID) == "" {
		return 0, entity.ErrInvalidCategoryID
	}
	return u.flashcards.DeleteByCategory(ctx, userID, categoryID)
}

func nonBlank(s string) bool { return strings.TrimSpace(s) != "" }
