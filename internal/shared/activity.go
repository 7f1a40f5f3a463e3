package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionType classifies an activity log entry.
type ActionType string

const (
	ActionInsert           ActionType = "INSERT"
	ActionUpdate           ActionType = "UPDATE"
	ActionTransferToLini2  ActionType = "TRANSFER_TO_LINI2"
	ActionPickedBySupplier ActionType = "PICKED_BY_SUPPLIER"
	ActionCalculateCost    ActionType = "CALCULATE_COST"
	ActionDailyCalcBatch   ActionType = "DAILY_CALC_BATCH"
	ActionHighCostAlert    ActionType = "HIGH_COST_ALERT"
	ActionPutAway          ActionType = "PUT_AWAY"
	ActionPick             ActionType = "PICK"
	ActionRelocate         ActionType = "RELOCATE"
	ActionCeisaRequest     ActionType = "CEISA_SEND_REQUEST"
	ActionCeisaResponse    ActionType = "CEISA_SEND_RESPONSE"
)

// ActivityLog represents a record stored in activity_logs.
type ActivityLog struct {
	EntityTable string
	RecordID    string
	ActionType  ActionType
	OldData     map[string]any
	NewData     map[string]any
	ChangedBy   string
	At          time.Time
}

// ActivityRecorder is the port mutating services log through.
type ActivityRecorder interface {
	Record(ctx context.Context, log ActivityLog) error
}

// ActivityLogger writes records into activity_logs.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the log entry. ChangedBy defaults to the context actor.
func (l *ActivityLogger) Record(ctx context.Context, log ActivityLog) error {
	if l == nil {
		return errors.New("activity logger not initialised")
	}
	if log.EntityTable == "" || log.ActionType == "" {
		return errors.New("activity log requires entity_table/action_type")
	}
	if log.ChangedBy == "" {
		log.ChangedBy = ActorFromContext(ctx)
	}
	oldJSON, err := json.Marshal(log.OldData)
	if err != nil {
		return err
	}
	newJSON, err := json.Marshal(log.NewData)
	if err != nil {
		return err
	}
	var at any
	if !log.At.IsZero() {
		at = log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO activity_logs (entity_table, record_id, action_type, old_data, new_data, changed_by, occurred_at) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, COALESCE($7, NOW()))`,
		log.EntityTable, log.RecordID, string(log.ActionType), oldJSON, newJSON, log.ChangedBy, at)
	return err
}
