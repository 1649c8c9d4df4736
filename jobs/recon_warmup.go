package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/reports"
	jobmetrics "github.com/kencana-erp/kencana/internal/jobs"
	"github.com/kencana-erp/kencana/internal/recon"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReconWarmupJob pre-computes reconciliation reports so the first dashboard
// hit after an invalidation does not pay the build cost.
type ReconWarmupJob struct {
	Service *recon.Service
	Cache   *recon.Cache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconWarmupJob wires dependencies for the warmup handler.
func NewReconWarmupJob(service *recon.Service, cache *recon.Cache, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconWarmupJob {
	return &ReconWarmupJob{Service: service, Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes recon warmup tasks.
func (j *ReconWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("recon warmup: handler not configured")
	}
	var payload ReconWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReconWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()

	filters := j.expandFilters(payload)
	warmed := 0
	for _, f := range filters {
		report, err := j.warmOne(ctx, f)
		if err != nil {
			resultErr = err
			logger.Error("warm report", slog.String("period", f.Period), slog.Any("error", err))
			return resultErr
		}
		if report.Degraded() {
			j.metrics().AddDegradedReport(f.Period)
			logger.Warn("warmup produced degraded report",
				slog.String("period", f.Period),
				slog.String("error", *report.Error))
			continue
		}
		warmed++
	}

	logger.Info("completed recon warmup", slog.Int("reports", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ReconWarmupJob) warmOne(ctx context.Context, f recon.Filters) (recon.Report, error) {
	buildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	key, err := j.Cache.BuildKey(buildCtx, f)
	if err != nil {
		return recon.Report{}, err
	}
	return j.Cache.FetchReport(buildCtx, key, func(ctx context.Context) (recon.Report, error) {
		return j.Service.Build(ctx, f), nil
	})
}

func (j *ReconWarmupJob) expandFilters(payload ReconWarmupPayload) []recon.Filters {
	if len(payload.Periods) == 0 {
		return []recon.Filters{{Granularity: periods.GranularityMonth, Mode: reports.ModeUnbalanced}}
	}
	filters := make([]recon.Filters, 0, len(payload.Periods)*2)
	seenYears := make(map[string]bool)
	for _, token := range payload.Periods {
		filters = append(filters, recon.Filters{
			Granularity: periods.GranularityMonth,
			Period:      token,
			Mode:        reports.ModeUnbalanced,
		})
		if payload.IncludeYear && len(token) >= 4 {
			year := token[:4]
			if !seenYears[year] {
				seenYears[year] = true
				filters = append(filters, recon.Filters{
					Granularity: periods.GranularityYear,
					Period:      year,
					Mode:        reports.ModeUnbalanced,
				})
			}
		}
	}
	return filters
}

func (j *ReconWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReconWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReconWarmup))
}

func (j *ReconWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
