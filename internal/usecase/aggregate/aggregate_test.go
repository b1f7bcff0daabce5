package aggregate

import (
	"reflect"
	"testing"

	"github.com/eslsoft/flashnet/internal/entity"
)

func card(id, categoryID string, known, reviewed bool) entity.Flashcard {
	return entity.Flashcard{ID: id, CategoryID: categoryID, Front: "f-" + id, Back: "b-" + id, IsKnown: known, IsReviewed: reviewed}
}

func TestCountByCategoryEmptyList(t *testing.T) {
	got := CountByCategory(nil)
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %v", got)
	}

	categories := []entity.Category{{ID: "c1", Name: "Spanish"}, {ID: "c2", Name: "German"}}
	for _, summary := range Overview(categories, nil) {
		if summary.Total != 0 || summary.Percentage != 0 {
			t.Fatalf("expected 0 items / 0%%, got %+v", summary)
		}
		if summary.Unit != "items" {
			t.Fatalf("expected unit items for zero, got %q", summary.Unit)
		}
	}
}

func TestCountByCategory(t *testing.T) {
	cards := []entity.Flashcard{
		card("1", "a", false, false),
		card("2", "a", true, true),
		card("3", "b", false, true),
		card("4", "orphan", true, false),
	}

	want := map[string]int{"a": 2, "b": 1, "orphan": 1}
	if got := CountByCategory(cards); !reflect.DeepEqual(got, want) {
		t.Fatalf("CountByCategory = %v, want %v", got, want)
	}

	wantKnown := map[string]int{"a": 1, "orphan": 1}
	if got := KnownCountByCategory(cards); !reflect.DeepEqual(got, wantKnown) {
		t.Fatalf("KnownCountByCategory = %v, want %v", got, wantKnown)
	}
	if _, ok := KnownCountByCategory(cards)["b"]; ok {
		t.Fatal("category without known cards must be absent")
	}
}

func TestNoKnownCardsMeansFullUnknownPool(t *testing.T) {
	cards := []entity.Flashcard{
		card("1", "a", false, false),
		card("2", "a", false, true),
		card("3", "a", false, false),
	}
	if got := len(UnknownPool(cards)); got != len(cards) {
		t.Fatalf("unknown pool size = %d, want %d", got, len(cards))
	}
	if got := KnownCountByCategory(cards)["a"]; got != 0 {
		t.Fatalf("known count = %d, want 0", got)
	}
}

func TestKnownPercentage(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		counts map[string]int
		known  map[string]int
		want   int
	}{
		{name: "quarter", id: "a", counts: map[string]int{"a": 4}, known: map[string]int{"a": 1}, want: 25},
		{name: "absent category", id: "x", counts: map[string]int{"a": 4}, known: map[string]int{"a": 1}, want: 0},
		{name: "zero total", id: "a", counts: map[string]int{"a": 0}, known: map[string]int{}, want: 0},
		{name: "nil maps", id: "a", want: 0},
		{name: "all known", id: "a", counts: map[string]int{"a": 3}, known: map[string]int{"a": 3}, want: 100},
		{name: "rounds half up", id: "a", counts: map[string]int{"a": 8}, known: map[string]int{"a": 1}, want: 13},
		{name: "rounds down", id: "a", counts: map[string]int{"a": 3}, known: map[string]int{"a": 1}, want: 33},
		{name: "inconsistent input clamps", id: "a", counts: map[string]int{"a": 2}, known: map[string]int{"a": 5}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KnownPercentage(tt.id, tt.counts, tt.known)
			if got != tt.want {
				t.Errorf("KnownPercentage() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("KnownPercentage() = %d out of range", got)
			}
		})
	}
}

func TestUnitAndNoun(t *testing.T) {
	cases := []struct {
		n    int
		unit string
		noun string
	}{
		{0, "items", "flashcards"},
		{1, "item", "flashcard"},
		{2, "items", "flashcards"},
		{11, "items", "flashcards"},
	}
	for _, c := range cases {
		if got := Unit(c.n); got != c.unit {
			t.Errorf("Unit(%d) = %q, want %q", c.n, got, c.unit)
		}
		if got := Noun(c.n, "flashcard", "flashcards"); got != c.noun {
			t.Errorf("Noun(%d) = %q, want %q", c.n, got, c.noun)
		}
	}
}

func TestOverviewDropsOrphansAndKeepsOrder(t *testing.T) {
	categories := []entity.Category{{ID: "b", Name: "German"}, {ID: "a", Name: "Spanish"}}
	cards := []entity.Flashcard{
		card("1", "a", true, true),
		card("2", "a", false, true),
		card("3", "a", false, false),
		card("4", "a", false, false),
		card("5", "b", false, false),
		card("6", "gone", true, true),
	}

	got := Overview(categories, cards)
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].Category.ID != "b" || got[1].Category.ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Total != 1 || got[0].Unit != "item" || got[0].Percentage != 0 {
		t.Fatalf("unexpected German summary: %+v", got[0])
	}
	if got[1].Total != 4 || got[1].Known != 1 || got[1].Reviewed != 2 || got[1].Percentage != 25 || got[1].Unit != "items" {
		t.Fatalf("unexpected Spanish summary: %+v", got[1])
	}
}

func TestSessionCounters(t *testing.T) {
	cards := []entity.Flashcard{
		card("1", "a", true, true),
		card("2", "a", false, true),
		card("3", "a", false, false),
	}
	got := SessionCounters(cards)
	want := Counters{Total: 3, Reviewed: 2, Known: 1, Remaining: 2}
	if got != want {
		t.Fatalf("SessionCounters = %+v, want %+v", got, want)
	}

	if empty := SessionCounters(nil); empty != (Counters{}) {
		t.Fatalf("expected zero counters, got %+v", empty)
	}
}

func TestInputsAreNotModified(t *testing.T) {
	cards := []entity.Flashcard{card("1", "a", true, false), card("2", "a", false, false)}
	before := append([]entity.Flashcard(nil), cards...)

	_ = Overview([]entity.Category{{ID: "a"}}, cards)
	_ = UnknownPool(cards)

	if !reflect.DeepEqual(before, cards) {
		t.Fatal("aggregate functions must not modify their input")
	}
}
