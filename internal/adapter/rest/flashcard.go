package rest

import (
	"net/http"
	"strings"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase"
)

// CreateFlashcardRequest names the category by id or by name.
type CreateFlashcardRequest struct {
	Front        string `json:"front"`
	Back         string `json:"back"`
	CategoryID   string `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

func (h *Handler) listFlashcards(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	page, err := parsePagination(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	query := &repository.ListFlashcardQuery{
		Pagination:  page,
		FilterOrder: parseFilterOrder(r),
		UserID:      p.UserID,
		CategoryID:  strings.TrimSpace(r.URL.Query().Get("category_id")),
	}
	items, total, err := h.flashcards.ListFlashcards(r.Context(), query)
	if err != nil {
		WriteError(w, err)
		return
	}
	if items == nil {
		items = []entity.Flashcard{}
	}
	writeJSON(w, http.StatusOK, ListResponse[entity.Flashcard]{
		Items: items, Total: total, PageNo: page.PageNo, PageSize: page.PageSize,
	})
}

func (h *Handler) createFlashcard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var req CreateFlashcardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	created, err := h.flashcards.CreateFlashcard(r.Context(), p.UserID, usecase.CreateFlashcardInput{
		Front:        req.Front,
		Back:         req.Back,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getFlashcard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	card, err := h.flashcards.GetFlashcard(r.Context(), p.UserID, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) updateFlashcard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var patch entity.FlashcardPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	card, err := h.flashcards.UpdateFlashcard(r.Context(), p.UserID, r.PathValue("id"), patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) deleteFlashcard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.flashcards.DeleteFlashcard(r.Context(), p.UserID, r.PathValue("id")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateCategoryFlags(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	categoryID, err := requiredCategoryID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var patch entity.FlashcardPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	n, err := h.flashcards.UpdateCategoryFlags(r.Context(), p.UserID, categoryID, patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *Handler) deleteByCategory(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	categoryID, err := requiredCategoryID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := h.flashcards.DeleteByCategory(r.Context(), p.UserID, categoryID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Bulk routes always name a category.
func requiredCategoryID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("category_id"))
	if id == "" {
		return "", entity.ErrInvalidCategoryID
	}
	return id, nil
}
