// internal/members/handler.go
package members

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

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	borrower, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "borrower registered", borrower)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	borrower, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "authenticated", borrower)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid borrower id"))
		return
	}

	borrower, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "borrower found", borrower)
}

func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	borrowers, err := h.service.ActiveBorrowers(r.Context())
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "active borrowers", borrowers)
}
