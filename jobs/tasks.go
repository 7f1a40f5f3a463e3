package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDailyStorageCalc recomputes storage costs for every accruing movement.
	TaskDailyStorageCalc = "storage:daily_calc"
)

// DailyStorageCalcPayload parametrizes one daily batch run.
type DailyStorageCalcPayload struct {
	TriggeredBy string `json:"triggered_by"`
}

// NewDailyStorageCalcTask constructs the daily batch task.
func NewDailyStorageCalcTask(payload DailyStorageCalcPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyStorageCalc, data), nil
}
