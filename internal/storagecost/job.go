package storagecost

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// dailyLockKey guards against overlapping batch runs across processes.
const dailyLockKey = "storagecost:daily_calc:lock"

// dailyLockTTL bounds how long a crashed run can block the next one.
const dailyLockTTL = 30 * time.Minute

// dailyParallelism caps concurrent per-movement calculations.
const dailyParallelism = 8

// CalculatorPort is the per-movement calculation the batch fans out to.
type CalculatorPort interface {
	Calculate(ctx context.Context, movementID string) (Calculation, error)
}

// BatchRepositoryPort abstracts the aggregate queries the batch needs.
type BatchRepositoryPort interface {
	ListActiveMovementIDs(ctx context.Context) ([]string, error)
	CountByStatus(ctx context.Context) (map[ledger.MovementStatus]int, error)
	UpsertDailySummary(ctx context.Context, s DailySummary) error
}

// DailyCalculator recomputes every accruing movement once a day, writes the
// per-day aggregate, and raises an alert when the fleet-wide total crosses
// the configured threshold.
type DailyCalculator struct {
	calc      CalculatorPort
	repo      BatchRepositoryPort
	rdb       *redis.Client
	activity  shared.ActivityRecorder
	logger    *slog.Logger
	threshold decimal.Decimal
	now       func() time.Time
}

// NewDailyCalculator builds the batch runner.
func NewDailyCalculator(calc CalculatorPort, repo BatchRepositoryPort, rdb *redis.Client, activity shared.ActivityRecorder, logger *slog.Logger, threshold decimal.Decimal) *DailyCalculator {
	return &DailyCalculator{
		calc:      calc,
		repo:      repo,
		rdb:       rdb,
		activity:  activity,
		logger:    logger,
		threshold: threshold,
		now:       time.Now,
	}
}

// WithClock overrides the batch clock. Test hook.
func (d *DailyCalculator) WithClock(now func() time.Time) *DailyCalculator {
	d.now = now
	return d
}

// Run executes one batch pass. A movement that fails to calculate is
// recorded in the result and does not abort the rest of the run.
func (d *DailyCalculator) Run(ctx context.Context) (DailyResult, error) {
	if d.rdb != nil {
		ok, err := d.rdb.SetNX(ctx, dailyLockKey, d.now().UTC().Format(time.RFC3339), dailyLockTTL).Result()
		if err != nil {
			return DailyResult{}, err
		}
		if !ok {
			return DailyResult{}, ErrAlreadyRunning
		}
		defer func() {
			if err := d.rdb.Del(context.WithoutCancel(ctx), dailyLockKey).Err(); err != nil {
				d.logger.Warn("release daily calc lock", slog.Any("error", err))
			}
		}()
	}

	ctx = shared.WithActor(ctx, shared.ActorCron)
	start := d.now().UTC()
	d.logger.Info("starting daily storage cost batch")

	ids, err := d.repo.ListActiveMovementIDs(ctx)
	if err != nil {
		return DailyResult{}, err
	}

	var mu sync.Mutex
	result := DailyResult{TotalProcessed: len(ids), TotalBiayaHariIni: decimal.Zero}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dailyParallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			calc, err := d.calc.Calculate(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.ErrorCount++
				result.Errors = append(result.Errors, ItemError{StockMovementID: id, Error: err.Error()})
				d.logger.Error("daily calc item", slog.String("movement_id", id), slog.Any("error", err))
				return nil
			}
			result.SuccessCount++
			result.TotalBiayaHariIni = result.TotalBiayaHariIni.Add(calc.TotalBiaya)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DailyResult{}, err
	}

	counts, err := d.repo.CountByStatus(ctx)
	if err != nil {
		return DailyResult{}, err
	}
	summary := DailySummary{
		Tanggal:       truncateToDay(start),
		TotalAktif:    counts[ledger.StatusAktif],
		TotalDipindah: counts[ledger.StatusDipindahkan],
		TotalDiambil:  counts[ledger.StatusDiambil],
		TotalBiaya:    result.TotalBiayaHariIni,
	}
	if err := d.repo.UpsertDailySummary(ctx, summary); err != nil {
		return DailyResult{}, err
	}

	d.record(ctx, shared.ActorCron, shared.ActionDailyCalcBatch, map[string]any{
		"total_processed": result.TotalProcessed,
		"success_count":   result.SuccessCount,
		"error_count":     result.ErrorCount,
		"total_biaya":     result.TotalBiayaHariIni.String(),
	})

	if result.TotalBiayaHariIni.GreaterThan(d.threshold) {
		result.AlertSent = true
		d.logger.Warn("daily storage cost above threshold",
			slog.String("total_biaya", result.TotalBiayaHariIni.String()),
			slog.String("threshold", d.threshold.String()))
		d.record(ctx, shared.ActorAlert, shared.ActionHighCostAlert, map[string]any{
			"total_biaya": result.TotalBiayaHariIni.String(),
			"threshold":   d.threshold.String(),
			"message":     "Total biaya penyimpanan harian melebihi " + FormatRupiah(d.threshold),
		})
	}

	d.logger.Info("completed daily storage cost batch",
		slog.Int("processed", result.TotalProcessed),
		slog.Int("success", result.SuccessCount),
		slog.Int("errors", result.ErrorCount),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (d *DailyCalculator) record(ctx context.Context, actor string, action shared.ActionType, newData map[string]any) {
	if d.activity == nil {
		return
	}
	err := d.activity.Record(shared.WithActor(ctx, actor), shared.ActivityLog{
		EntityTable: "daily_summary",
		RecordID:    truncateToDay(d.now().UTC()).Format("2006-01-02"),
		ActionType:  action,
		NewData:     newData,
	})
	if err != nil {
		d.logger.Warn("record batch activity", slog.Any("error", err))
	}
}
