package repository

import (
	"context"

	"github.com/eslsoft/flashnet/internal/entity"
)

// ListFlashcardQuery holds parameters for listing a user's flashcards.
// An empty CategoryID lists across all categories.
type ListFlashcardQuery struct {
	Pagination
	FilterOrder

	UserID     string
	CategoryID string
}

// FlashcardRepository is the flashcard half of the table store. Every call is
// scoped to the owning user.
type FlashcardRepository interface {
	Create(ctx context.Context, card *entity.Flashcard) (*entity.Flashcard, error)
	GetByID(ctx context.Context, userID, id string) (*entity.Flashcard, error)
	List(ctx context.Context, query *ListFlashcardQuery) ([]entity.Flashcard, int64, error)
	Update(ctx context.Context, userID, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error)
	UpdateByCategory(ctx context.Context, userID, categoryID string, patch entity.FlashcardPatch) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteByCategory(ctx context.Context, userID, categoryID string) (int64, error)
}
