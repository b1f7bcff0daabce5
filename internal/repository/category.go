package repository

import (
	"context"

	"github.com/eslsoft/flashnet/internal/entity"
)

// ListCategoryQuery holds parameters for listing a user's categories.
type ListCategoryQuery struct {
	Pagination
	FilterOrder

	UserID string
}

// CategoryRepository abstracts persistence for categories to keep usecases storage agnostic.
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) (*entity.Category, error)
	GetByID(ctx context.Context, userID, id string) (*entity.Category, error)
	// FindByName returns (nil, nil) when the user has no category with that name.
	FindByName(ctx context.Context, userID, name string) (*entity.Category, error)
	List(ctx context.Context, query *ListCategoryQuery) ([]entity.Category, int64, error)
	Rename(ctx context.Context, userID, id, name string) (*entity.Category, error)
	Delete(ctx context.Context, userID, id string) error
}
