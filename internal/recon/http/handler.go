// Package http exposes the reconciliation report over JSON and CSV endpoints.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/reports"
	"github.com/kencana-erp/kencana/internal/platform/httpx"
	"github.com/kencana-erp/kencana/internal/recon"
)

// Handler wires reconciliation report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *recon.Service
	cache     *recon.Cache
	validator *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the reconciliation handler. The cache may be nil,
// in which case every request computes a fresh report.
func NewHandler(logger *slog.Logger, service *recon.Service, cache *recon.Cache) *Handler {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:    logger,
		service:   service,
		cache:     cache,
		validator: validator.New(),
		rateLimit: limiter,
	}
}

// MountRoutes registers reconciliation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/recon", h.handleGetReport)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/finance/recon/export.csv", h.handleExportCSV)
	})
}

type reportQuery struct {
	Granularity string `validate:"omitempty,oneof=month year"`
	Period      string `validate:"omitempty,numeric,min=4,max=6"`
	Mode        string `validate:"omitempty,oneof=unbalanced all"`
}

func (h *Handler) parseFilters(r *http.Request) (recon.Filters, map[string]string) {
	q := r.URL.Query()
	form := reportQuery{
		Granularity: strings.TrimSpace(q.Get("granularity")),
		Period:      strings.TrimSpace(q.Get("period")),
		Mode:        strings.TrimSpace(q.Get("mode")),
	}
	errors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "Granularity":
				errors["granularity"] = "Jenis periode tidak valid"
			case "Period":
				errors["period"] = "Periode tidak valid"
			case "Mode":
				errors["mode"] = "Mode temuan tidak valid"
			}
		}
	}
	if len(errors) > 0 {
		return recon.Filters{}, errors
	}
	return recon.Filters{
		Granularity: periods.Granularity(form.Granularity),
		Period:      form.Period,
		Mode:        reports.Mode(form.Mode),
	}, errors
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	filters, errors := h.parseFilters(r)
	if len(errors) > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(mapValues(errors), "; "))
		return
	}
	report, err := h.buildReport(r.Context(), filters)
	if err != nil {
		h.logger.Error("recon report request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filters, errors := h.parseFilters(r)
	if len(errors) > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(mapValues(errors), "; "))
		return
	}
	report, err := h.buildReport(r.Context(), filters)
	if err != nil {
		h.logger.Error("recon export request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rekonsiliasi_%s.csv", report.Period))
	if err := writeReportCSV(w, report); err != nil {
		h.logger.Error("stream recon csv", slog.Any("error", err))
	}
}

// buildReport answers from the versioned cache and collapses concurrent
// builds for the same key into a single computation.
func (h *Handler) buildReport(ctx context.Context, filters recon.Filters) (recon.Report, error) {
	key, err := h.cache.BuildKey(ctx, filters)
	if err != nil {
		// Redis being down should not take the report down with it.
		h.logger.Warn("recon cache key", slog.Any("error", err))
		return h.service.Build(ctx, filters), nil
	}
	report, err, shared := singleflightReport(ctx, key, func(ctx context.Context) (recon.Report, error) {
		return h.cache.FetchReport(ctx, key, func(ctx context.Context) (recon.Report, error) {
			return h.service.Build(ctx, filters), nil
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return recon.Report{}, err
		}
		h.logger.Warn("recon cache fetch", slog.Any("error", err))
		return h.service.Build(ctx, filters), nil
	}
	if shared {
		h.logger.Debug("recon build shared", slog.String("key", key))
	}
	return report, nil
}

func mapValues(m map[string]string) []string {
	values := make([]string, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
