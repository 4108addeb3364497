package handler

import (
	"net/http"

	"github.com/msomdec/project-planner/internal/service"
)

type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// HandleList returns every category.
// GET /categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "Category", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(cats, toCategoryDTO))
}
