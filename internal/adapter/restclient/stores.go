package restclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/eslsoft/flashnet/internal/adapter/rest"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
)

const (
	categoriesPath = "/rest/v1/categories"
	flashcardsPath = "/rest/v1/flashcards"
)

var (
	_ repository.CategoryRepository  = (*CategoryStore)(nil)
	_ repository.FlashcardRepository = (*FlashcardStore)(nil)
)

// CategoryStore is the REST-backed CategoryRepository. The server scopes
// every call to the token's user; userID arguments are not sent.
type CategoryStore struct {
	c *Client
}

func (s *CategoryStore) Create(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	var out entity.Category
	in := map[string]string{"name": category.Name}
	if err := s.c.do(ctx, "create category", categoryResource, http.MethodPost, categoriesPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CategoryStore) GetByID(ctx context.Context, _, id string) (*entity.Category, error) {
	var out entity.Category
	if err := s.c.do(ctx, "get category", categoryResource, http.MethodGet, categoriesPath+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, userID, name string) (*entity.Category, error) {
	name = entity.NormalizeCategoryName(name)
	if name == "" {
		return nil, nil
	}
	items, _, err := s.List(ctx, &repository.ListCategoryQuery{
		UserID:      userID,
		Pagination:  repository.Pagination{PageNo: 1, PageSize: 1},
		FilterOrder: repository.FilterOrder{Filter: "name == " + strconv.Quote(name)},
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (s *CategoryStore) List(ctx context.Context, query *repository.ListCategoryQuery) ([]entity.Category, int64, error) {
	if query == nil {
		query = &repository.ListCategoryQuery{}
	}
	return list[entity.Category](ctx, s.c, "list categories", categoryResource, categoriesPath, listValues(query.FilterOrder), query.Pagination)
}

func (s *CategoryStore) Rename(ctx context.Context, _, id, name string) (*entity.Category, error) {
	var out entity.Category
	in := map[string]string{"name": name}
	if err := s.c.do(ctx, "rename category", categoryResource, http.MethodPatch, categoriesPath+"/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the category. The server deletes its flashcards first.
func (s *CategoryStore) Delete(ctx context.Context, _, id string) error {
	return s.c.do(ctx, "delete category", categoryResource, http.MethodDelete, categoriesPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// FlashcardStore is the REST-backed FlashcardRepository.
type FlashcardStore struct {
	c *Client
}

func (s *FlashcardStore) Create(ctx context.Context, card *entity.Flashcard) (*entity.Flashcard, error) {
	var out entity.Flashcard
	in := rest.CreateFlashcardRequest{Front: card.Front, Back: card.Back, CategoryID: card.CategoryID}
	if err := s.c.do(ctx, "create flashcard", flashcardResource, http.MethodPost, flashcardsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInCategory creates a flashcard in the category called name, creating
// that category when the user has none.
func (s *FlashcardStore) CreateInCategory(ctx context.Context, front, back, name string) (*entity.Flashcard, error) {
	var out entity.Flashcard
	in := rest.CreateFlashcardRequest{Front: front, Back: back, CategoryName: name}
	if err := s.c.do(ctx, "create flashcard", flashcardResource, http.MethodPost, flashcardsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *FlashcardStore) GetByID(ctx context.Context, _, id string) (*entity.Flashcard, error) {
	var out entity.Flashcard
	if err := s.c.do(ctx, "get flashcard", flashcardResource, http.MethodGet, flashcardsPath+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *FlashcardStore) List(ctx context.Context, query *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error) {
	if query == nil {
		query = &repository.ListFlashcardQuery{}
	}
	values := listValues(query.FilterOrder)
	if query.CategoryID != "" {
		values.Set("category_id", query.CategoryID)
	}
	return list[entity.Flashcard](ctx, s.c, "list flashcards", flashcardResource, flashcardsPath, values, query.Pagination)
}

func (s *FlashcardStore) Update(ctx context.Context, _, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error) {
	if patch.Empty() {
		return nil, entity.ErrEmptyPatch
	}
	var out entity.Flashcard
	if err := s.c.do(ctx, "update flashcard", flashcardResource, http.MethodPatch, flashcardsPath+"/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *FlashcardStore) UpdateByCategory(ctx context.Context, _, categoryID string, patch entity.FlashcardPatch) (int64, error) {
	if patch.Empty() {
		return 0, entity.ErrEmptyPatch
	}
	var out rest.CountResponse
	q := url.Values{"category_id": {categoryID}}
	if err := s.c.do(ctx, "update flashcards by category", flashcardResource, http.MethodPatch, flashcardsPath, q, patch, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *FlashcardStore) Delete(ctx context.Context, _, id string) error {
	return s.c.do(ctx, "delete flashcard", flashcardResource, http.MethodDelete, flashcardsPath+"/"+url.PathEscape(id), nil, nil, nil)
}

func (s *FlashcardStore) DeleteByCategory(ctx context.Context, _, categoryID string) (int64, error) {
	var out rest.CountResponse
	q := url.Values{"category_id": {categoryID}}
	if err := s.c.do(ctx, "delete flashcards by category", flashcardResource, http.MethodDelete, flashcardsPath, q, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func listValues(fo repository.FilterOrder) url.Values {
	values := url.Values{}
	if fo.Filter != "" {
		values.Set("filter", fo.Filter)
	}
	if fo.OrderBy != "" {
		values.Set("order_by", fo.OrderBy)
	}
	return values
}

// list fetches one page, or every page when the caller set no page size.
func list[T any](ctx context.Context, c *Client, op string, res resource, path string, values url.Values, page repository.Pagination) ([]T, int64, error) {
	if page.PageSize > 0 {
		pageNo := page.PageNo
		if pageNo <= 0 {
			pageNo = 1
		}
		values.Set("page_no", strconv.Itoa(int(pageNo)))
		values.Set("page_size", strconv.Itoa(int(page.PageSize)))
		var out rest.ListResponse[T]
		if err := c.do(ctx, op, res, http.MethodGet, path, values, nil, &out); err != nil {
			return nil, 0, err
		}
		return out.Items, out.Total, nil
	}

	var (
		items []T
		total int64
	)
	for pageNo := 1; ; pageNo++ {
		values.Set("page_no", strconv.Itoa(pageNo))
		values.Set("page_size", strconv.Itoa(listPageSize))
		var out rest.ListResponse[T]
		if err := c.do(ctx, op, res, http.MethodGet, path, values, nil, &out); err != nil {
			return nil, 0, err
		}
		items = append(items, out.Items...)
		total = out.Total
		if len(out.Items) < listPageSize || int64(len(items)) >= total {
			break
		}
	}
	return items, total, nil
}
