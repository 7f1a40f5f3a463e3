package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lumbung-wms/lumbung-wms/internal/storagecost"
)

// DailyStorageCalcJob runs the daily storage cost batch from the queue.
type DailyStorageCalcJob struct {
	Runner *storagecost.DailyCalculator
	Logger *slog.Logger
}

// NewDailyStorageCalcJob initialises the daily batch handler.
func NewDailyStorageCalcJob(runner *storagecost.DailyCalculator, logger *slog.Logger) *DailyStorageCalcJob {
	return &DailyStorageCalcJob{Runner: runner, Logger: logger}
}

// Handle executes the daily batch. An overlapping run is skipped silently so
// the scheduler does not retry into the same lock.
func (j *DailyStorageCalcJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("daily storage calc: handler not configured")
	}
	var payload DailyStorageCalcPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.String("triggered_by", payload.TriggeredBy))
	start := time.Now()

	result, err := j.Runner.Run(ctx)
	if err != nil {
		if errors.Is(err, storagecost.ErrAlreadyRunning) {
			logger.Info("daily batch already running, skipping")
			return nil
		}
		logger.Error("daily batch failed", slog.Any("error", err))
		return err
	}

	logger.Info("daily batch finished",
		slog.Int("processed", result.TotalProcessed),
		slog.Int("success", result.SuccessCount),
		slog.Int("errors", result.ErrorCount),
		slog.Bool("alert_sent", result.AlertSent),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DailyStorageCalcJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDailyStorageCalc))
	}
	return slog.Default().With(slog.String("job", TaskDailyStorageCalc))
}
