package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/pkg/filterexpr"
)

var (
	flashcardColumns = []string{
		"id", "user_id", "category_id", "front", "back",
		"is_known", "is_reviewed", "created_at", "updated_at",
	}
	flashcardOrderColumns = orderColumns(listFlashcardsSchema.Order.Fields)
)

type flashcardRepository struct {
	sqlStore
}

// NewFlashcardRepository returns a SQL-backed flashcard repository.
func NewFlashcardRepository(drv dialect.Driver) repository.FlashcardRepository {
	return &flashcardRepository{sqlStore: newSQLStore(drv)}
}

func (r *flashcardRepository) Create(ctx context.Context, card *entity.Flashcard) (*entity.Flashcard, error) {
	if card == nil {
		return nil, fmt.Errorf("create flashcard: nil entity")
	}
	c := *card
	c.Normalize(r.clock())
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	insert := r.builder().Insert(flashcardsTable).
		Columns(flashcardColumns...).
		Values(c.ID, c.UserID, c.CategoryID, c.Front, c.Back, c.IsKnown, c.IsReviewed, c.CreatedAt, c.UpdatedAt)
	if _, err := r.exec(ctx, insert); err != nil {
		return nil, translateError("create flashcard", err, nil, nil)
	}
	return &c, nil
}

func (r *flashcardRepository) GetByID(ctx context.Context, userID, id string) (*entity.Flashcard, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, entity.ErrInvalidFlashcardID
	}
	t := r.builder().Table(flashcardsTable)
	sel := r.builder().Select(flashcardColumns...).From(t).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("id", id))).
		Limit(1)

	var found *entity.Flashcard
	if err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		c, err := scanFlashcard(rows)
		if err != nil {
			return err
		}
		found = &c
		return nil
	}); err != nil {
		return nil, translateError("get flashcard", err, entity.ErrFlashcardNotFound, nil)
	}
	if found == nil {
		return nil, entity.ErrFlashcardNotFound
	}
	return found, nil
}

func (r *flashcardRepository) List(ctx context.Context, query *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error) {
	if query == nil {
		query = &repository.ListFlashcardQuery{}
	}

	var params listFlashcardParams
	if err := filterexpr.Bind(query, &params, listFlashcardsSchema); err != nil {
		return nil, 0, entity.NewStoreError("list flashcards", entity.ErrValidationRejected, err.Error(), err)
	}

	t := r.builder().Table(flashcardsTable)
	sel := r.builder().Select(flashcardColumns...).From(t)
	applyFlashcardFilters(sel, query, &params)

	total, err := r.count(ctx, sel.Clone())
	if err != nil {
		return nil, 0, translateError("count flashcards", err, nil, nil)
	}

	applyOrder(sel, flashcardOrderColumns, params.PrimaryKey, params.PrimaryDesc, params.SecondaryKey, params.SecondaryDesc)
	applyPage(sel, query.PageSize, query.Offset())

	items := make([]entity.Flashcard, 0)
	if err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		c, err := scanFlashcard(rows)
		if err != nil {
			return err
		}
		items = append(items, c)
		return nil
	}); err != nil {
		return nil, 0, translateError("list flashcards", err, nil, nil)
	}
	return items, total, nil
}

func (r *flashcardRepository) Update(ctx context.Context, userID, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	update := r.builder().Update(flashcardsTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("id", id)))
	r.setPatch(update, patch)
	if _, err := r.exec(ctx, update); err != nil {
		return nil, translateError("update flashcard", err, nil, nil)
	}
	return r.GetByID(ctx, userID, id)
}

func (r *flashcardRepository) UpdateByCategory(ctx context.Context, userID, categoryID string, patch entity.FlashcardPatch) (int64, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	update := r.builder().Update(flashcardsTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("category_id", categoryID)))
	r.setPatch(update, patch)
	affected, err := r.exec(ctx, update)
	if err != nil {
		return 0, translateError("update flashcards by category", err, nil, nil)
	}
	return affected, nil
}

func (r *flashcardRepository) Delete(ctx context.Context, userID, id string) error {
	del := r.builder().Delete(flashcardsTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("id", id)))
	affected, err := r.exec(ctx, del)
	if err != nil {
		return translateError("delete flashcard", err, nil, nil)
	}
	if affected == 0 {
		return entity.ErrFlashcardNotFound
	}
	return nil
}

func (r *flashcardRepository) DeleteByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	del := r.builder().Delete(flashcardsTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("category_id", categoryID)))
	affected, err := r.exec(ctx, del)
	if err != nil {
		return 0, translateError("delete flashcards by category", err, nil, nil)
	}
	return affected, nil
}

func (r *flashcardRepository) setPatch(update *entsql.UpdateBuilder, patch entity.FlashcardPatch) {
	if patch.Front != nil {
		update.Set("front", *patch.Front)
	}
	if patch.Back != nil {
		update.Set("back", *patch.Back)
	}
	if patch.CategoryID != nil {
		update.Set("category_id", *patch.CategoryID)
	}
	if patch.IsKnown != nil {
		update.Set("is_known", *patch.IsKnown)
	}
	if patch.IsReviewed != nil {
		update.Set("is_reviewed", *patch.IsReviewed)
	}
	update.Set("updated_at", r.clock())
}

func applyFlashcardFilters(sel *entsql.Selector, query *repository.ListFlashcardQuery, params *listFlashcardParams) {
	sel.Where(entsql.EQ("user_id", query.UserID))
	if categoryID := strings.TrimSpace(query.CategoryID); categoryID != "" {
		sel.Where(entsql.EQ("category_id", categoryID))
	}
	if params.Known != nil {
		sel.Where(entsql.EQ("is_known", *params.Known))
	}
	if params.Reviewed != nil {
		sel.Where(entsql.EQ("is_reviewed", *params.Reviewed))
	}
	if prefix := trimmedOrNil(params.FrontPrefix); prefix != nil {
		sel.Where(entsql.HasPrefix("front", *prefix))
	}
	if kw := trimmedOrNil(params.Keyword); kw != nil {
		sel.Where(entsql.Or(
			entsql.ContainsFold("front", *kw),
			entsql.ContainsFold("back", *kw),
		))
	}
	if ids := normalizeIDs(params.CategoryIDs); len(ids) > 0 {
		sel.Where(entsql.In("category_id", anySlice(ids)...))
	}
	if params.CreatedAfter != nil {
		sel.Where(entsql.GTE("created_at", params.CreatedAfter.UTC()))
	}
	if params.CreatedBefore != nil {
		sel.Where(entsql.LTE("created_at", params.CreatedBefore.UTC()))
	}
}

func scanFlashcard(rows *entsql.Rows) (entity.Flashcard, error) {
	var c entity.Flashcard
	if err := rows.Scan(
		&c.ID, &c.UserID, &c.CategoryID, &c.Front, &c.Back,
		&c.IsKnown, &c.IsReviewed, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return entity.Flashcard{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
