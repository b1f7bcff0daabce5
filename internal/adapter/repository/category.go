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
	categoryColumns      = []string{"id", "user_id", "name", "created_at", "updated_at"}
	categoryOrderColumns = orderColumns(listCategoriesSchema.Order.Fields)
)

type categoryRepository struct {
	sqlStore
}

// NewCategoryRepository returns a SQL-backed category repository.
func NewCategoryRepository(drv dialect.Driver) repository.CategoryRepository {
	return &categoryRepository{sqlStore: newSQLStore(drv)}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	if category == nil {
		return nil, fmt.Errorf("create category: nil entity")
	}
	c := *category
	c.Normalize(r.clock())
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	insert := r.builder().Insert(categoriesTable).
		Columns(categoryColumns...).
		Values(c.ID, c.UserID, c.Name, c.CreatedAt, c.UpdatedAt)
	if _, err := r.exec(ctx, insert); err != nil {
		return nil, translateError("create category", err, nil, entity.ErrDuplicateCategory)
	}
	return &c, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, userID, id string) (*entity.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, entity.ErrInvalidCategoryID
	}
	found, err := r.findOne(ctx, "get category", entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("id", id),
	))
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, entity.ErrCategoryNotFound
	}
	return found, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, userID, name string) (*entity.Category, error) {
	name = entity.NormalizeCategoryName(name)
	if name == "" {
		return nil, nil
	}
	return r.findOne(ctx, "find category by name", entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("name", name),
	))
}

func (r *categoryRepository) List(ctx context.Context, query *repository.ListCategoryQuery) ([]entity.Category, int64, error) {
	if query == nil {
		query = &repository.ListCategoryQuery{}
	}

	var params listCategoryParams
	if err := filterexpr.Bind(query, &params, listCategoriesSchema); err != nil {
		return nil, 0, entity.NewStoreError("list categories", entity.ErrValidationRejected, err.Error(), err)
	}

	t := r.builder().Table(categoriesTable)
	sel := r.builder().Select(categoryColumns...).From(t)
	sel.Where(entsql.EQ("user_id", query.UserID))
	if params.Name != nil {
		sel.Where(entsql.EQ("name", entity.NormalizeCategoryName(*params.Name)))
	}
	if prefix := trimmedOrNil(params.NamePrefix); prefix != nil {
		sel.Where(entsql.HasPrefix("name", *prefix))
	}
	if kw := trimmedOrNil(params.Keyword); kw != nil {
		sel.Where(entsql.ContainsFold("name", *kw))
	}

	total, err := r.count(ctx, sel.Clone())
	if err != nil {
		return nil, 0, translateError("count categories", err, nil, nil)
	}

	applyOrder(sel, categoryOrderColumns, params.PrimaryKey, params.PrimaryDesc, params.SecondaryKey, params.SecondaryDesc)
	applyPage(sel, query.PageSize, query.Offset())

	var items []entity.Category
	if err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		c, err := scanCategory(rows)
		if err != nil {
			return err
		}
		items = append(items, c)
		return nil
	}); err != nil {
		return nil, 0, translateError("list categories", err, nil, nil)
	}
	return items, total, nil
}

func (r *categoryRepository) Rename(ctx context.Context, userID, id, name string) (*entity.Category, error) {
	name = entity.NormalizeCategoryName(name)
	if err := entity.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	update := r.builder().Update(categoriesTable).
		Set("name", name).
		Set("updated_at", r.clock()).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("id", id)))
	if _, err := r.exec(ctx, update); err != nil {
		return nil, translateError("rename category", err, nil, entity.ErrDuplicateCategory)
	}
	// MySQL reports zero affected rows for no-op updates, so read back instead.
	return r.GetByID(ctx, userID, id)
}

func (r *categoryRepository) Delete(ctx context.Context, userID, id string) error {
	del := r.builder().Delete(categoriesTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("id", id)))
	affected, err := r.exec(ctx, del)
	if err != nil {
		return translateError("delete category", err, nil, nil)
	}
	if affected == 0 {
		return entity.ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepository) findOne(ctx context.Context, op string, pred *entsql.Predicate) (*entity.Category, error) {
	t := r.builder().Table(categoriesTable)
	sel := r.builder().Select(categoryColumns...).From(t).Where(pred).Limit(1)

	var found *entity.Category
	if err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		c, err := scanCategory(rows)
		if err != nil {
			return err
		}
		found = &c
		return nil
	}); err != nil {
		return nil, translateError(op, err, nil, nil)
	}
	return found, nil
}

func scanCategory(rows *entsql.Rows) (entity.Category, error) {
	var c entity.Category
	if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return entity.Category{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
