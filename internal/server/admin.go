package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/export"
	"github.com/joseph-ayodele/offers-tracker/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

// Admin serves health, metrics and the processing journal over HTTP.
type Admin struct {
	journal  repository.JournalRepository
	exporter *export.Service
	gatherer prometheus.Gatherer
	checks   map[string]HealthFunc
	logger   *slog.Logger
}

// NewAdmin builds the admin handler. journal may be nil when journaling is off;
// the /documents routes then answer 503.
func NewAdmin(journal repository.JournalRepository, gatherer prometheus.Gatherer, checks map[string]HealthFunc, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	a := &Admin{journal: journal, gatherer: gatherer, checks: checks, logger: logger}
	if journal != nil {
		a.exporter = export.NewService(journal, logger)
	}
	return a
}

// Router returns the chi router with all admin routes.
func (a *Admin) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", a.HandleListDocuments)
		r.Get("/summary", a.HandleSummary)
		r.Get("/export.xlsx", a.HandleExport)
		r.Get("/{id}", a.HandleGetDocument)
	})
	return r
}

func (a *Admin) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(a.checks))
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			a.logger.Warn("admin.health.failed", "check", name, "err", err)
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
}

func (a *Admin) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !a.journalEnabled(w) {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := a.journal.ListRecent(r.Context(), limit)
	if err != nil {
		a.logger.Error("admin.documents.failed", "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": entries})
}

func (a *Admin) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	if !a.journalEnabled(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, common.WrapError(common.ErrInvalidInput, "id must be a UUID"))
		return
	}
	entry, err := a.journal.Get(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.logger.Error("admin.document.failed", "document_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *Admin) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !a.journalEnabled(w) {
		return
	}
	counts, err := a.journal.CountByStatus(r.Context())
	if err != nil {
		a.logger.Error("admin.summary.failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": counts})
}

func (a *Admin) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !a.journalEnabled(w) {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := a.exporter.ExportJournalXLSX(r.Context(), limit)
	if err != nil {
		a.logger.Error("export.xlsx.failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="journal.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (a *Admin) journalEnabled(w http.ResponseWriter) bool {
	if a.journal == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("journal disabled"))
		return false
	}
	return true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxListLimit {
		return 0, common.WrapError(common.ErrInvalidInput, "limit must be between 1 and "+strconv.Itoa(maxListLimit))
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
