// internal/reports/handler.go
package reports

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bibliocore/internal/fault"
	"bibliocore/internal/httpx"
)

type Handler struct {
	service  Service
	exporter *Exporter
}

func NewHandler(service Service, exporter *Exporter) *Handler {
	return &Handler{service: service, exporter: exporter}
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind        string    `json:"kind"`
		WindowStart time.Time `json:"window_start"`
		WindowEnd   time.Time `json:"window_end"`
		OwnerID     int64     `json:"owner_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	report, err := h.service.Generate(r.Context(), req.Kind, req.WindowStart, req.WindowEnd, req.OwnerID)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "report generated", report)
}

func (h *Handler) HandleCreateManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind    string `json:"kind"`
		Content string `json:"content"`
		OwnerID int64  `json:"owner_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	report, err := h.service.CreateManual(r.Context(), req.Kind, req.Content, req.OwnerID)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "report created", report)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "report found", report)
}

// HandleList filters persisted reports by kind, or by generation
// window when from/to are supplied instead.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if kind := r.URL.Query().Get("kind"); kind != "" {
		found, err := h.service.ListByKind(r.Context(), kind)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, "reports listed", found)
		return
	}

	from, errFrom := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	to, errTo := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		httpx.Fail(w, fault.Validation("specify kind, or from and to as RFC3339 timestamps"))
		return
	}

	found, err := h.service.ListByWindow(r.Context(), from, to)
	if err != nil {
		httpx.Fail(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "reports listed", found)
}

func (h *Handler) HandleAppendNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	var req struct {
		Note         string `json:"note"`
		MarkResolved bool   `json:"mark_resolved"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	report, err := h.service.AppendNote(r.Context(), id, req.Note, req.MarkResolved)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "note appended", report)
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	var req struct {
		Format string `json:"format"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, fault.Validation("invalid request body"))
		return
	}

	path, err := h.exporter.Export(r.Context(), id, req.Format)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, http.StatusOK, "report exported", map[string]string{"path": path})
}

func (h *Handler) reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, fault.Validation("invalid report id"))
		return 0, false
	}
	return id, true
}
