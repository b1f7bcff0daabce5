// Package aggregate derives per-category display metrics from flat lists of
// categories and flashcards. Everything here is a pure function: results are
// recomputed from scratch on every call and inputs are never modified.
package aggregate

import (
	"math"

	"github.com/samber/lo"

	"github.com/eslsoft/flashnet/internal/entity"
)

// CountByCategory tallies flashcards per category id. Categories without
// flashcards are absent from the result; callers treat absence as zero.
func CountByCategory(cards []entity.Flashcard) map[string]int {
	return tally(cards)
}

// KnownCountByCategory tallies known flashcards per category id. Categories
// without known flashcards are absent.
func KnownCountByCategory(cards []entity.Flashcard) map[string]int {
	return tally(lo.Filter(cards, func(card entity.Flashcard, _ int) bool { return card.IsKnown }))
}

// ReviewedCountByCategory tallies reviewed flashcards per category id.
func ReviewedCountByCategory(cards []entity.Flashcard) map[string]int {
	return tally(lo.Filter(cards, func(card entity.Flashcard, _ int) bool { return card.IsReviewed }))
}

// KnownPercentage returns round(known/total*100) for categoryID, or 0 when the
// category has no flashcards.
func KnownPercentage(categoryID string, counts, known map[string]int) int {
	total := counts[categoryID]
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(known[categoryID]) / float64(total) * 100))
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Unit is the display unit for a count of items.
func Unit(n int) string {
	return Noun(n, "item", "items")
}

// Noun picks singular for exactly one, plural otherwise (zero included).
func Noun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// CategorySummary is one row of the category list.
type CategorySummary struct {
	Category   entity.Category `json:"category"`
	Total      int             `json:"total"`
	Known      int             `json:"known"`
	Reviewed   int             `json:"reviewed"`
	Percentage int             `json:"percentage"`
	Unit       string          `json:"unit"`
}

// Overview builds one summary per category, in the order categories are
// given. Flashcards pointing at categories outside the list are dropped.
func Overview(categories []entity.Category, cards []entity.Flashcard) []CategorySummary {
	counts := CountByCategory(cards)
	known := KnownCountByCategory(cards)
	reviewed := ReviewedCountByCategory(cards)

	return lo.Map(categories, func(category entity.Category, _ int) CategorySummary {
		total := counts[category.ID]
		return CategorySummary{
			Category:   category,
			Total:      total,
			Known:      known[category.ID],
			Reviewed:   reviewed[category.ID],
			Percentage: KnownPercentage(category.ID, counts, known),
			Unit:       Unit(total),
		}
	})
}

// Counters are the learning-screen figures for one category.
type Counters struct {
	Total     int `json:"total"`
	Reviewed  int `json:"reviewed"`
	Known     int `json:"known"`
	Remaining int `json:"remaining"`
}

// SessionCounters derives the counters from a category's flashcards. Known is
// total minus the unknown pool, remaining is the unknown pool size.
func SessionCounters(cards []entity.Flashcard) Counters {
	unknown := len(UnknownPool(cards))
	return Counters{
		Total:     len(cards),
		Reviewed:  lo.CountBy(cards, func(card entity.Flashcard) bool { return card.IsReviewed }),
		Known:     len(cards) - unknown,
		Remaining: unknown,
	}
}

// UnknownPool returns the flashcards not yet marked known, preserving order.
func UnknownPool(cards []entity.Flashcard) []entity.Flashcard {
	return lo.Filter(cards, func(card entity.Flashcard, _ int) bool { return !card.IsKnown })
}

func tally(cards []entity.Flashcard) map[string]int {
	groups := lo.GroupBy(cards, func(card entity.Flashcard) string { return card.CategoryID })
	return lo.MapValues(groups, func(items []entity.Flashcard, _ string) int { return len(items) })
}
