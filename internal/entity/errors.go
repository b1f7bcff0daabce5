package entity

import (
	"errors"
	"strings"
)

// Domain errors for categories, flashcards and learning sessions.
var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrInvalidCategoryID    = errors.New("invalid category ID")
	ErrInvalidCategoryName  = errors.New("invalid category name")
	ErrDuplicateCategory    = errors.New("category already exists")
	ErrFlashcardNotFound    = errors.New("flashcard not found")
	ErrInvalidFlashcardID   = errors.New("invalid flashcard ID")
	ErrInvalidFlashcardText = errors.New("flashcard front and back are required")
	ErrEmptyPatch           = errors.New("patch has no fields to update")
	ErrInvalidUserID        = errors.New("invalid user ID")

	ErrSessionNotFound  = errors.New("learning session not found")
	ErrSessionNotLoaded = errors.New("learning session not loaded")
	ErrSessionComplete  = errors.New("all flashcards in this category are learned")
	ErrCardNotFlipped   = errors.New("flashcard must be turned before answering")
)

// Store failure taxonomy. Every error coming back from the table store
// classifies as exactly one of these.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrValidationRejected = errors.New("validation rejected")
	ErrNetwork            = errors.New("network or transport failure")
	ErrUnknown            = errors.New("unknown store error")
)

// StoreError describes a failed call against the table store.
type StoreError struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	kind := e.Kind
	if kind == nil {
		kind = ErrUnknown
	}
	b.WriteString(kind.Error())
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StoreError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewStoreError builds a StoreError; a nil kind is recorded as ErrUnknown.
func NewStoreError(op string, kind error, message string, cause error) *StoreError {
	if kind == nil {
		kind = ErrUnknown
	}
	return &StoreError{Kind: kind, Op: op, Message: message, Err: cause}
}

// KindOf classifies err into the store failure taxonomy. Domain validation
// and lookup failures count as ValidationRejected.
func KindOf(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotAuthenticated):
		return ErrNotAuthenticated
	case errors.Is(err, ErrNetwork):
		return ErrNetwork
	case errors.Is(err, ErrValidationRejected),
		errors.Is(err, ErrInvalidCategoryID),
		errors.Is(err, ErrInvalidCategoryName),
		errors.Is(err, ErrDuplicateCategory),
		errors.Is(err, ErrInvalidFlashcardID),
		errors.Is(err, ErrInvalidFlashcardText),
		errors.Is(err, ErrEmptyPatch),
		errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrFlashcardNotFound):
		return ErrValidationRejected
	default:
		return ErrUnknown
	}
}

// IsRetryable reports whether repeating the call may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// KindName returns the wire name of a taxonomy kind.
func KindName(kind error) string {
	switch kind {
	case ErrNotAuthenticated:
		return "not_authenticated"
	case ErrValidationRejected:
		return "validation_rejected"
	case ErrNetwork:
		return "network_or_transport"
	case nil:
		return ""
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of KindName.
func ParseKind(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "not_authenticated":
		return ErrNotAuthenticated
	case "validation_rejected":
		return ErrValidationRejected
	case "network_or_transport":
		return ErrNetwork
	default:
		return ErrUnknown
	}
}
