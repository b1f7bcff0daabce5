package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/aggregate"
)

// CategoryUsecase encapsulates business logic for a user's categories.
type CategoryUsecase interface {
	ListCategories(ctx context.Context, query *repository.ListCategoryQuery) ([]entity.Category, int64, error)
	GetCategory(ctx context.Context, userID, id string) (*entity.Category, error)
	Overview(ctx context.Context, userID string) ([]aggregate.CategorySummary, error)
	CreateCategory(ctx context.Context, userID, name string) (*entity.Category, error)
	RenameCategory(ctx context.Context, userID, id, name string) (*entity.Category, error)
	// DeleteCategory removes the category's flashcards first, then the
	// category, and reports how many flashcards went with it.
	DeleteCategory(ctx context.Context, userID, id string) (int64, error)
}

// NewCategoryUsecase wires the repositories with default behaviour.
func NewCategoryUsecase(categories repository.CategoryRepository, flashcards repository.FlashcardRepository) CategoryUsecase {
	return &categoryUsecase{
		categories: categories,
		flashcards: flashcards,
		clock:      time.Now,
	}
}

type categoryUsecase struct {
	categories repository.CategoryRepository
	flashcards repository.FlashcardRepository
	clock      func() time.Time
}

func (u *categoryUsecase) ListCategories(ctx context.Context, query *repository.ListCategoryQuery) ([]entity.Category, int64, error) {
	if query == nil || strings.TrimSpace(query.UserID) == "" {
		return nil, 0, entity.ErrInvalidUserID
	}
	return u.categories.List(ctx, query)
}

func (u *categoryUsecase) GetCategory(ctx context.Context, userID, id string) (*entity.Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, entity.ErrInvalidCategoryID
	}
	return u.categories.GetByID(ctx, userID, id)
}

func (u *categoryUsecase) Overview(ctx context.Context, userID string) ([]aggregate.CategorySummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, entity.ErrInvalidUserID
	}

	categories, _, err := u.categories.List(ctx, &repository.ListCategoryQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	cards, _, err := u.flashcards.List(ctx, &repository.ListFlashcardQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("fetch flashcards: %w", err)
	}
	return aggregate.Overview(categories, cards), nil
}

func (u *categoryUsecase) CreateCategory(ctx context.Context, userID, name string) (*entity.Category, error) {
	category := entity.Category{UserID: userID, Name: name}
	category.Normalize(u.clock())
	if err := category.Validate(); err != nil {
		return nil, err
	}

	existing, err := u.categories.FindByName(ctx, userID, category.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, entity.ErrDuplicateCategory
	}
	return u.categories.Create(ctx, &category)
}

func (u *categoryUsecase) RenameCategory(ctx context.Context, userID, id, name string) (*entity.Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, entity.ErrInvalidCategoryID
	}
	name = entity.NormalizeCategoryName(name)
	if err := entity.ValidateCategoryName(name); err != nil {
		return nil, err
	}

	existing, err := u.categories.FindByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, entity.ErrDuplicateCategory
	}
	return u.categories.Rename(ctx, userID, id, name)
}

func (u *categoryUsecase) DeleteCategory(ctx context.Context, userID, id string) (int64, error) {
	if strings.TrimSpace(id) == "" {
		return 0, entity.ErrInvalidCategoryID
	}
	if _, err := u.categories.GetByID(ctx, userID, id); err != nil {
		return 0, err
	}

	removed, err := u.flashcards.DeleteByCategory(ctx, userID, id)
	if err != nil {
		return 0, fmt.Errorf("delete flashcards of category: %w", err)
	}
	if err := u.categories.Delete(ctx, userID, id); err != nil {
		return removed, fmt.Errorf("delete category: %w", err)
	}
	return removed, nil
}
