package rest

import (
	"net/http"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/aggregate"
)

type categoryNameRequest struct {
	Name string `json:"name"`
}

// DeleteCategoryResponse reports the cascade.
type DeleteCategoryResponse struct {
	DeletedFlashcards int64 `json:"deleted_flashcards"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
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
	query := &repository.ListCategoryQuery{
		Pagination:  page,
		FilterOrder: parseFilterOrder(r),
		UserID:      p.UserID,
	}
	items, total, err := h.categories.ListCategories(r.Context(), query)
	if err != nil {
		WriteError(w, err)
		return
	}
	if items == nil {
		items = []entity.Category{}
	}
	writeJSON(w, http.StatusOK, ListResponse[entity.Category]{
		Items: items, Total: total, PageNo: page.PageNo, PageSize: page.PageSize,
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	summaries, err := h.categories.Overview(r.Context(), p.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if summaries == nil {
		summaries = []aggregate.CategorySummary{}
	}
	writeJSON(w, http.StatusOK, ListResponse[aggregate.CategorySummary]{
		Items: summaries, Total: int64(len(summaries)), PageNo: 1, PageSize: int32(len(summaries)),
	})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var req categoryNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	created, err := h.categories.CreateCategory(r.Context(), p.UserID, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	c, err := h.categories.GetCategory(r.Context(), p.UserID, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) renameCategory(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var req categoryNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	c, err := h.categories.RenameCategory(r.Context(), p.UserID, r.PathValue("id"), req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := h.categories.DeleteCategory(r.Context(), p.UserID, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteCategoryResponse{DeletedFlashcards: n})
}
