package entity

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxCategoryNameLen = 100

// Category is a named grouping of flashcards owned by one user.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize ensures defaults & constraints before persistence.
func (c *Category) Normalize(now time.Time) {
	c.Name = NormalizeCategoryName(c.Name)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrInvalidUserID
	}
	return ValidateCategoryName(c.Name)
}

// NormalizeCategoryName trims surrounding space and collapses inner runs of
// whitespace, so "  spanish   verbs " and "spanish verbs" name the same category.
func NormalizeCategoryName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func ValidateCategoryName(name string) error {
	name = NormalizeCategoryName(name)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryNameLen {
		return ErrInvalidCategoryName
	}
	return nil
}
