// internal/catalog/handler.go
package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bibliocore/internal/fault"
	"bibliocore/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid book id"))
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "book found", book)
}

func (h *Handler) HandleGetCopy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid copy id"))
		return
	}

	copy, err := h.service.GetCopy(r.Context(), id)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "copy found", copy)
}
