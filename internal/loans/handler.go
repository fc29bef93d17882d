// internal/loans/handler.go
package loans

import (
	"net/http"
	"strconv"
	"time"

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

func (h *Handler) HandleRegisterLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BorrowerID int64     `json:"borrower_id"`
		CopyID     int64     `json:"copy_id"`
		LoanDate   time.Time `json:"loan_date"`
		DueDate    time.Time `json:"due_date"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	loan, err := h.service.RegisterLoan(r.Context(), req.BorrowerID, req.CopyID, req.LoanDate, req.DueDate)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "loan registered", loan)
}

func (h *Handler) HandleExtendLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var req struct {
		NewDueDate time.Time `json:"new_due_date"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	loan, err := h.service.ExtendLoan(r.Context(), id, req.NewDueDate)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "loan extended", loan)
}

func (h *Handler) HandleRegisterReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var req struct {
		ReturnDate  time.Time `json:"return_date"`
		WithPenalty bool      `json:"with_penalty"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	loan, err := h.service.RegisterReturn(r.Context(), id, req.ReturnDate, req.WithPenalty)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "return registered", loan)
}

func (h *Handler) HandleCancelLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.service.CancelLoan(r.Context(), id)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "loan cancelled", loan)
}

func (h *Handler) HandleAssessPenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.service.AssessPenalty(r.Context(), id)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "penalty assessed", loan)
}

func (h *Handler) HandleIsRestricted(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := strconv.ParseInt(chi.URLParam(r, "borrowerID"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid borrower id"))
		return
	}

	restricted, err := h.service.IsRestricted(r.Context(), borrowerID)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "restriction checked", map[string]bool{"restricted": restricted})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := strconv.ParseInt(chi.URLParam(r, "borrowerID"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid borrower id"))
		return
	}

	var history []*Loan
	for loan, err := range h.service.History(r.Context(), borrowerID) {
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		history = append(history, loan)
	}

	httpx.OK(w, http.StatusOK, "loan history", history)
}

func (h *Handler) loanID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid loan id"))
		return 0, false
	}
	return id, true
}
