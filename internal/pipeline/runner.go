package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rfpdash/internal"
	"rfpdash/internal/logging"
)

type Source interface {
	RunPipeline(ctx context.Context) (internal.RfpResult, error)
}

type Sink interface {
	Write(result internal.RfpResult) error
}

type Journal interface {
	InsertRun(run internal.PipelineRun) (int64, error)
}

// Runner triggers a backend pipeline run and makes its result current.
// Overlapping runs are not ordered: whichever finishes last is held.
type Runner struct {
	source  Source
	sink    Sink
	journal Journal
	logger  *zap.Logger
}

func NewRunner(source Source, sink Sink, journal Journal, logger *zap.Logger) *Runner {
	return &Runner{source: source, sink: sink, journal: journal, logger: logging.OrNop(logger)}
}

type RunResult struct {
	TraceID string
	Result  internal.RfpResult
	Timings map[string]float64
}

func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	traceID := uuid.NewString()
	logger := r.logger.With(zap.String("trace_id", traceID))
	start := time.Now()

	result, err := r.source.RunPipeline(ctx)
	if err != nil {
		logger.Warn("pipeline run failed", zap.Error(err))
		return RunResult{TraceID: traceID}, err
	}
	fetchMs := msSince(start)

	storeStart := time.Now()
	if err := r.sink.Write(result); err != nil {
		logger.Warn("pipeline result rejected", zap.Error(err))
		return RunResult{TraceID: traceID}, err
	}
	timings := map[string]float64{
		"fetchMs": fetchMs,
		"storeMs": msSince(storeStart),
		"totalMs": msSince(start),
	}

	run := internal.PipelineRun{
		TraceID:    traceID,
		RfpID:      result.RfpID,
		Items:      len(result.TechnicalAnalysis.Items),
		Priced:     len(result.PricingAnalysis.PricingSummary),
		DurationMs: timings["totalMs"],
	}
	if r.journal != nil {
		if _, err := r.journal.InsertRun(run); err != nil {
			logger.Warn("record pipeline run", zap.Error(err))
		}
	}

	logger.Info("pipeline run done",
		zap.String("rfp_id", run.RfpID),
		zap.Int("items", run.Items),
		zap.Int("priced", run.Priced),
		zap.Float64("total_ms", run.DurationMs),
	)
	return RunResult{TraceID: traceID, Result: result, Timings: timings}, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
