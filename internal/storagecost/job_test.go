package storagecost

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

type fakeCalculator struct {
	costs map[string]decimal.Decimal
	fail  map[string]error
}

func (f *fakeCalculator) Calculate(_ context.Context, id string) (Calculation, error) {
	if err, ok := f.fail[id]; ok {
		return Calculation{}, err
	}
	return Calculation{StockMovementID: id, TotalBiaya: f.costs[id]}, nil
}

type fakeBatchRepo struct {
	ids       []string
	counts    map[ledger.MovementStatus]int
	summaries map[string]DailySummary
}

func newFakeBatchRepo(ids ...string) *fakeBatchRepo {
	return &fakeBatchRepo{
		ids:       ids,
		counts:    map[ledger.MovementStatus]int{},
		summaries: map[string]DailySummary{},
	}
}

func (f *fakeBatchRepo) ListActiveMovementIDs(context.Context) ([]string, error) {
	return f.ids, nil
}

func (f *fakeBatchRepo) CountByStatus(context.Context) (map[ledger.MovementStatus]int, error) {
	return f.counts, nil
}

func (f *fakeBatchRepo) UpsertDailySummary(_ context.Context, s DailySummary) error {
	f.summaries[s.Tanggal.Format("2006-01-02")] = s
	return nil
}

type recordingActivity struct {
	logs []shared.ActivityLog
}

// Record mirrors ActivityLogger: ChangedBy defaults to the context actor.
func (r *recordingActivity) Record(ctx context.Context, log shared.ActivityLog) error {
	if log.ChangedBy == "" {
		log.ChangedBy = shared.ActorFromContext(ctx)
	}
	r.logs = append(r.logs, log)
	return nil
}

func TestDailyRunAggregates(t *testing.T) {
	calc := &fakeCalculator{costs: map[string]decimal.Decimal{
		"a": decimal.NewFromInt(100000),
		"b": decimal.NewFromInt(250000),
	}}
	repo := newFakeBatchRepo("a", "b")
	repo.counts[ledger.StatusAktif] = 1
	repo.counts[ledger.StatusDipindahkan] = 1
	activity := &recordingActivity{}

	runner := NewDailyCalculator(calc, repo, nil, activity, slog.Default(), decimal.NewFromInt(10_000_000))
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalProcessed)
	require.Equal(t, 2, result.SuccessCount)
	require.Equal(t, 0, result.ErrorCount)
	require.True(t, result.TotalBiayaHariIni.Equal(decimal.NewFromInt(350000)))
	require.False(t, result.AlertSent)

	require.Len(t, repo.summaries, 1)
	for _, s := range repo.summaries {
		require.Equal(t, 1, s.TotalAktif)
		require.Equal(t, 1, s.TotalDipindah)
		require.True(t, s.TotalBiaya.Equal(decimal.NewFromInt(350000)))
	}
	require.Len(t, activity.logs, 1)
	require.Equal(t, shared.ActionDailyCalcBatch, activity.logs[0].ActionType)
}

func TestDailyRunCollectsPerItemErrors(t *testing.T) {
	calc := &fakeCalculator{
		costs: map[string]decimal.Decimal{"a": decimal.NewFromInt(5000)},
		fail:  map[string]error{"broken": errors.New("no weight on file")},
	}
	repo := newFakeBatchRepo("a", "broken")

	runner := NewDailyCalculator(calc, repo, nil, &recordingActivity{}, slog.Default(), decimal.NewFromInt(10_000_000))
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalProcessed)
	require.Equal(t, 1, result.SuccessCount)
	require.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "broken", result.Errors[0].StockMovementID)
	require.True(t, result.TotalBiayaHariIni.Equal(decimal.NewFromInt(5000)))
}

func TestDailyRunRaisesThresholdAlert(t *testing.T) {
	calc := &fakeCalculator{costs: map[string]decimal.Decimal{
		"a": decimal.NewFromInt(6_000_000),
		"b": decimal.NewFromInt(5_000_000),
	}}
	repo := newFakeBatchRepo("a", "b")
	activity := &recordingActivity{}

	runner := NewDailyCalculator(calc, repo, nil, activity, slog.Default(), decimal.NewFromInt(10_000_000))
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.True(t, result.AlertSent)
	require.Len(t, activity.logs, 2)
	require.Equal(t, shared.ActionHighCostAlert, activity.logs[1].ActionType)
	require.Equal(t, shared.ActorAlert, activity.logs[1].ChangedBy)
}

func TestDailyRunSkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, mr.Set(dailyLockKey, "held"))
	mr.SetTTL(dailyLockKey, dailyLockTTL)

	runner := NewDailyCalculator(&fakeCalculator{}, newFakeBatchRepo(), rdb, &recordingActivity{}, slog.Default(), decimal.NewFromInt(10_000_000))
	_, err := runner.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestDailyRunReleasesLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	runner := NewDailyCalculator(&fakeCalculator{}, newFakeBatchRepo(), rdb, &recordingActivity{}, slog.Default(), decimal.NewFromInt(10_000_000))
	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.False(t, mr.Exists(dailyLockKey))
}

func TestDailyRunUsesCronActor(t *testing.T) {
	activity := &recordingActivity{}
	runner := NewDailyCalculator(&fakeCalculator{costs: map[string]decimal.Decimal{"a": decimal.Zero}},
		newFakeBatchRepo("a"), nil, activity, slog.Default(), decimal.NewFromInt(1))
	runner = runner.WithClock(func() time.Time { return time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC) })

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, activity.logs, 1)
	require.Equal(t, shared.ActorCron, activity.logs[0].ChangedBy)
}
