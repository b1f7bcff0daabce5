package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/infrastructure/database"
	"github.com/eslsoft/flashnet/internal/repository"
)

func newTestDriver(t *testing.T) dialect.Driver {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "flashnet.db") + "?_fk=1"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("sqlite3 driver requires cgo")
		}
		t.Fatalf("ping sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	drv := entsql.OpenDB(dialect.SQLite, db)
	t.Cleanup(func() { _ = drv.Close() })

	if err := database.Migrate(context.Background(), drv); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return drv
}

type testClock struct{ now time.Time }

func (c *testClock) tick() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestRepos(t *testing.T) (*categoryRepository, *flashcardRepository) {
	t.Helper()
	drv := newTestDriver(t)
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	categories := NewCategoryRepository(drv).(*categoryRepository)
	categories.clock = clock.tick
	cards := NewFlashcardRepository(drv).(*flashcardRepository)
	cards.clock = clock.tick
	return categories, cards
}

func seedCategory(t *testing.T, repo *categoryRepository, userID, name string) *entity.Category {
	t.Helper()
	c, err := repo.Create(context.Background(), &entity.Category{UserID: userID, Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func seedCard(t *testing.T, repo *flashcardRepository, userID, categoryID, front, back string) *entity.Flashcard {
	t.Helper()
	c, err := repo.Create(context.Background(), &entity.Flashcard{
		UserID: userID, CategoryID: categoryID, Front: front, Back: back,
	})
	if err != nil {
		t.Fatalf("create flashcard %q: %v", front, err)
	}
	return c
}

func TestCategoryRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	categories, _ := newTestRepos(t)

	created := seedCategory(t, categories, "u1", "  Spanish   Verbs ")
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Name != "Spanish Verbs" {
		t.Fatalf("expected normalized name, got %q", created.Name)
	}

	got, err := categories.GetByID(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != created.Name || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("unexpected category %+v", got)
	}

	if _, err := categories.GetByID(ctx, "u2", created.ID); !errors.Is(err, entity.ErrCategoryNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}

	byName, err := categories.FindByName(ctx, "u1", "spanish verbs")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if byName != nil {
		t.Fatalf("name lookup is case sensitive, got %+v", byName)
	}
	byName, err = categories.FindByName(ctx, "u1", "Spanish Verbs")
	if err != nil || byName == nil || byName.ID != created.ID {
		t.Fatalf("FindByName = %+v, %v", byName, err)
	}
}

func TestCategoryRepositoryRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	categories, _ := newTestRepos(t)

	seedCategory(t, categories, "u1", "French")
	_, err := categories.Create(ctx, &entity.Category{UserID: "u1", Name: "French"})
	if !errors.Is(err, entity.ErrDuplicateCategory) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	// another user may reuse the name
	seedCategory(t, categories, "u2", "French")

	other := seedCategory(t, categories, "u1", "German")
	if _, err := categories.Rename(ctx, "u1", other.ID, "French"); !errors.Is(err, entity.ErrDuplicateCategory) {
		t.Fatalf("expected duplicate on rename, got %v", err)
	}
}

func TestCategoryRepositoryListRenameDelete(t *testing.T) {
	ctx := context.Background()
	categories, _ := newTestRepos(t)

	spanish := seedCategory(t, categories, "u1", "Spanish")
	seedCategory(t, categories, "u1", "Swedish")
	seedCategory(t, categories, "u1", "Italian")
	seedCategory(t, categories, "u2", "Spanish")

	items, total, err := categories.List(ctx, &repository.ListCategoryQuery{
		UserID:      "u1",
		FilterOrder: repository.FilterOrder{Filter: `name.startsWith("S")`, OrderBy: "name desc"},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 categories, got total=%d len=%d", total, len(items))
	}
	if items[0].Name != "Swedish" || items[1].Name != "Spanish" {
		t.Fatalf("unexpected order: %q, %q", items[0].Name, items[1].Name)
	}

	page, total, err := categories.List(ctx, &repository.ListCategoryQuery{
		UserID:     "u1",
		Pagination: repository.Pagination{PageNo: 2, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].Name != "Italian" {
		t.Fatalf("unexpected second page: total=%d %+v", total, page)
	}

	renamed, err := categories.Rename(ctx, "u1", spanish.ID, " Castellano ")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "Castellano" || !renamed.UpdatedAt.After(spanish.UpdatedAt) {
		t.Fatalf("unexpected rename result %+v", renamed)
	}
	if _, err := categories.Rename(ctx, "u1", "missing", "X"); !errors.Is(err, entity.ErrCategoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := categories.Delete(ctx, "u1", spanish.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := categories.Delete(ctx, "u1", spanish.ID); !errors.Is(err, entity.ErrCategoryNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCategoryRepositoryListRejectsBadFilter(t *testing.T) {
	categories, _ := newTestRepos(t)
	_, _, err := categories.List(context.Background(), &repository.ListCategoryQuery{
		UserID:      "u1",
		FilterOrder: repository.FilterOrder{Filter: `size == "big"`},
	})
	if entity.KindOf(err) != entity.ErrValidationRejected {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestFlashcardRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	categories, cards := newTestRepos(t)
	spanish := seedCategory(t, categories, "u1", "Spanish")

	card := seedCard(t, cards, "u1", spanish.ID, " hola ", "hello")
	if card.Front != "hola" || card.IsKnown || card.IsReviewed {
		t.Fatalf("unexpected created card %+v", card)
	}

	got, err := cards.GetByID(ctx, "u1", card.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Back != "hello" || got.CategoryID != spanish.ID {
		t.Fatalf("unexpected card %+v", got)
	}
	if _, err := cards.GetByID(ctx, "u2", card.ID); !errors.Is(err, entity.ErrFlashcardNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}

	updated, err := cards.Update(ctx, "u1", card.ID, entity.FlashcardPatch{
		IsKnown:    entity.Bool(true),
		IsReviewed: entity.Bool(true),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.IsKnown || !updated.IsReviewed || updated.Front != "hola" {
		t.Fatalf("unexpected updated card %+v", updated)
	}

	if _, err := cards.Update(ctx, "u1", card.ID, entity.FlashcardPatch{}); !errors.Is(err, entity.ErrEmptyPatch) {
		t.Fatalf("expected empty patch error, got %v", err)
	}
	if _, err := cards.Update(ctx, "u1", "missing", entity.FlashcardPatch{IsKnown: entity.Bool(false)}); !errors.Is(err, entity.ErrFlashcardNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := cards.Delete(ctx, "u1", card.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := cards.Delete(ctx, "u1", card.ID); !errors.Is(err, entity.ErrFlashcardNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestFlashcardRepositoryRejectsUnknownCategory(t *testing.T) {
	_, cards := newTestRepos(t)
	_, err := cards.Create(context.Background(), &entity.Flashcard{
		UserID: "u1", CategoryID: "no-such-category", Front: "a", Back: "b",
	})
	if entity.KindOf(err) != entity.ErrValidationRejected {
		t.Fatalf("expected foreign key rejection, got %v", err)
	}
}

func TestFlashcardRepositoryListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	categories, cards := newTestRepos(t)
	spanish := seedCategory(t, categories, "u1", "Spanish")
	french := seedCategory(t, categories, "u1", "French")

	hola := seedCard(t, cards, "u1", spanish.ID, "hola", "hello")
	seedCard(t, cards, "u1", spanish.ID, "adios", "goodbye")
	gato := seedCard(t, cards, "u1", spanish.ID, "gato", "cat")
	seedCard(t, cards, "u1", french.ID, "chat", "cat")
	seedCard(t, cards, "u2", spanish.ID, "perro", "dog")

	if _, err := cards.Update(ctx, "u1", gato.ID, entity.FlashcardPatch{IsKnown: entity.Bool(true), IsReviewed: entity.Bool(true)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	items, total, err := cards.List(ctx, &repository.ListFlashcardQuery{UserID: "u1", CategoryID: spanish.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 cards, got total=%d len=%d", total, len(items))
	}
	if items[0].ID != hola.ID {
		t.Fatalf("default order should be creation order, first was %q", items[0].Front)
	}

	unknown, _, err := cards.List(ctx, &repository.ListFlashcardQuery{
		UserID:      "u1",
		CategoryID:  spanish.ID,
		FilterOrder: repository.FilterOrder{Filter: "is_known == false", OrderBy: "front asc"},
	})
	if err != nil {
		t.Fatalf("List unknown: %v", err)
	}
	if len(unknown) != 2 || unknown[0].Front != "adios" || unknown[1].Front != "hola" {
		t.Fatalf("unexpected unknown cards %+v", unknown)
	}

	cats, total, err := cards.List(ctx, &repository.ListFlashcardQuery{
		UserID:      "u1",
		FilterOrder: repository.FilterOrder{Filter: `keyword == "CAT"`},
	})
	if err != nil {
		t.Fatalf("List keyword: %v", err)
	}
	if total != 2 || len(cats) != 2 {
		t.Fatalf("expected both cat cards across categories, got %d", total)
	}

	inFrench, _, err := cards.List(ctx, &repository.ListFlashcardQuery{
		UserID:      "u1",
		FilterOrder: repository.FilterOrder{Filter: `category_id in ["` + french.ID + `"]`},
	})
	if err != nil {
		t.Fatalf("List in: %v", err)
	}
	if len(inFrench) != 1 || inFrench[0].Front != "chat" {
		t.Fatalf("unexpected french cards %+v", inFrench)
	}

	page, total, err := cards.List(ctx, &repository.ListFlashcardQuery{
		UserID:     "u1",
		Pagination: repository.Pagination{PageNo: 1, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if total != 4 || len(page) != 2 {
		t.Fatalf("expected 2 of 4, got %d of %d", len(page), total)
	}

	far, total, err := cards.List(ctx, &repository.ListFlashcardQuery{
		UserID:     "u1",
		Pagination: repository.Pagination{PageNo: 300000, PageSize: 10000},
	})
	if err != nil {
		t.Fatalf("List far page: %v", err)
	}
	if total != 4 || len(far) != 0 {
		t.Fatalf("a page past the end should be empty, got %d of %d", len(far), total)
	}
}

func TestFlashcardRepositoryCategoryWideOperations(t *testing.T) {
	ctx := context.Background()
	categories, cards := newTestRepos(t)
	spanish := seedCategory(t, categories, "u1", "Spanish")
	french := seedCategory(t, categories, "u1", "French")

	for _, front := range []string{"uno", "dos", "tres"} {
		seedCard(t, cards, "u1", spanish.ID, front, front+"!")
	}
	seedCard(t, cards, "u1", french.ID, "un", "one")

	n, err := cards.UpdateByCategory(ctx, "u1", spanish.ID, entity.FlashcardPatch{IsKnown: entity.Bool(true), IsReviewed: entity.Bool(true)})
	if err != nil {
		t.Fatalf("UpdateByCategory: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows updated, got %d", n)
	}

	n, err = cards.UpdateByCategory(ctx, "u1", spanish.ID, entity.ResetPatch())
	if err != nil || n != 3 {
		t.Fatalf("reset = %d, %v", n, err)
	}
	known, total, err := cards.List(ctx, &repository.ListFlashcardQuery{
		UserID:      "u1",
		FilterOrder: repository.FilterOrder{Filter: "is_reviewed == true"},
	})
	if err != nil || total != 0 || len(known) != 0 {
		t.Fatalf("expected no reviewed cards after reset, got %d (%v)", total, err)
	}

	if err := categories.Delete(ctx, "u1", spanish.ID); entity.KindOf(err) != entity.ErrValidationRejected {
		t.Fatalf("expected deleting a non-empty category to be rejected, got %v", err)
	}

	n, err = cards.DeleteByCategory(ctx, "u1", spanish.ID)
	if err != nil || n != 3 {
		t.Fatalf("DeleteByCategory = %d, %v", n, err)
	}
	if err := categories.Delete(ctx, "u1", spanish.ID); err != nil {
		t.Fatalf("Delete after emptying: %v", err)
	}

	_, total, err = cards.List(ctx, &repository.ListFlashcardQuery{UserID: "u1"})
	if err != nil || total != 1 {
		t.Fatalf("expected the french card to survive, got %d (%v)", total, err)
	}
}
