package entity

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxFlashcardTextLen = 1000

// Flashcard is a front/back text pair belonging to exactly one category.
type Flashcard struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CategoryID string    `json:"category_id"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	IsKnown    bool      `json:"is_known"`
	IsReviewed bool      `json:"is_reviewed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FlashcardPatch lists the columns an update touches. Nil fields are left alone.
type FlashcardPatch struct {
	Front      *string `json:"front,omitempty"`
	Back       *string `json:"back,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	IsKnown    *bool   `json:"is_known,omitempty"`
	IsReviewed *bool   `json:"is_reviewed,omitempty"`
}

// Normalize trims text and stamps timestamps before persistence.
func (f *Flashcard) Normalize(now time.Time) {
	f.Front = strings.TrimSpace(f.Front)
	f.Back = strings.TrimSpace(f.Back)
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
}

// Validate checks the invariants a stored flashcard must hold.
func (f *Flashcard) Validate() error {
	if strings.TrimSpace(f.UserID) == "" {
		return ErrInvalidUserID
	}
	if strings.TrimSpace(f.CategoryID) == "" {
		return ErrInvalidCategoryID
	}
	if !validCardText(f.Front) || !validCardText(f.Back) {
		return ErrInvalidFlashcardText
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p FlashcardPatch) Empty() bool {
	return p.Front == nil && p.Back == nil && p.CategoryID == nil && p.IsKnown == nil && p.IsReviewed == nil
}

// Normalize trims the text fields of the patch in place.
func (p *FlashcardPatch) Normalize() {
	if p.Front != nil {
		v := strings.TrimSpace(*p.Front)
		p.Front = &v
	}
	if p.Back != nil {
		v := strings.TrimSpace(*p.Back)
		p.Back = &v
	}
	if p.CategoryID != nil {
		v := strings.TrimSpace(*p.CategoryID)
		p.CategoryID = &v
	}
}

// Validate rejects empty patches and blank text.
func (p FlashcardPatch) Validate() error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.Front != nil && !validCardText(*p.Front) {
		return ErrInvalidFlashcardText
	}
	if p.Back != nil && !validCardText(*p.Back) {
		return ErrInvalidFlashcardText
	}
	if p.CategoryID != nil && strings.TrimSpace(*p.CategoryID) == "" {
		return ErrInvalidCategoryID
	}
	return nil
}

// Apply returns a copy of f with the patch applied.
func (p FlashcardPatch) Apply(f Flashcard) Flashcard {
	if p.Front != nil {
		f.Front = *p.Front
	}
	if p.Back != nil {
		f.Back = *p.Back
	}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	if p.IsKnown != nil {
		f.IsKnown = *p.IsKnown
	}
	if p.IsReviewed != nil {
		f.IsReviewed = *p.IsReviewed
	}
	return f
}

// ResetPatch clears both learning flags; used by "reset this set".
func ResetPatch() FlashcardPatch {
	return FlashcardPatch{IsKnown: Bool(false), IsReviewed: Bool(false)}
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

func validCardText(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= maxFlashcardTextLen
}
