// Package rest exposes the table store as JSON over HTTP.
package rest

import (
	"net/http"

	"github.com/eslsoft/flashnet/internal/usecase"
)

// Prefix is the path prefix of every REST route.
const Prefix = "/rest/v1/"

// Handler serves the category and flashcard routes.
type Handler struct {
	categories usecase.CategoryUsecase
	flashcards usecase.FlashcardUsecase
	mux        *http.ServeMux
}

// NewHandler registers the REST routes.
func NewHandler(categories usecase.CategoryUsecase, flashcards usecase.FlashcardUsecase) *Handler {
	h := &Handler{categories: categories, flashcards: flashcards, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /rest/v1/categories", h.listCategories)
	h.mux.HandleFunc("GET /rest/v1/categories/overview", h.overview)
	h.mux.HandleFunc("POST /rest/v1/categories", h.createCategory)
	h.mux.HandleFunc("GET /rest/v1/categories/{id}", h.getCategory)
	h.mux.HandleFunc("PATCH /rest/v1/categories/{id}", h.renameCategory)
	h.mux.HandleFunc("DELETE /rest/v1/categories/{id}", h.deleteCategory)

	h.mux.HandleFunc("GET /rest/v1/flashcards", h.listFlashcards)
	h.mux.HandleFunc("POST /rest/v1/flashcards", h.createFlashcard)
	h.mux.HandleFunc("PATCH /rest/v1/flashcards", h.updateCategoryFlags)
	h.mux.HandleFunc("DELETE /rest/v1/flashcards", h.deleteByCategory)
	h.mux.HandleFunc("GET /rest/v1/flashcards/{id}", h.getFlashcard)
	h.mux.HandleFunc("PATCH /rest/v1/flashcards/{id}", h.updateFlashcard)
	h.mux.HandleFunc("DELETE /rest/v1/flashcards/{id}", h.deleteFlashcard)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}
