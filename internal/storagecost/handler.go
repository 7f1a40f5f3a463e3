package storagecost

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

// SummaryPort reads daily aggregates.
type SummaryPort interface {
	GetDailySummary(ctx context.Context, tanggal time.Time) (DailySummary, error)
}

// DailyRunEnqueuer submits the daily batch to the background queue.
type DailyRunEnqueuer interface {
	EnqueueDailyStorageCalc(ctx context.Context) (string, error)
}

// Handler wires HTTP endpoints for storage costing.
type Handler struct {
	logger    *slog.Logger
	engine    *Engine
	summaries SummaryPort
	enqueuer  DailyRunEnqueuer
	validate  *validator.Validate
}

// NewHandler constructs the storage cost handler.
func NewHandler(logger *slog.Logger, engine *Engine, summaries SummaryPort, enqueuer DailyRunEnqueuer) *Handler {
	return &Handler{logger: logger, engine: engine, summaries: summaries, enqueuer: enqueuer, validate: validator.New()}
}

// MountRoutes registers storage cost routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/calculate", h.calculate)
	r.Get("/history/{movementID}", h.history)
	r.Post("/daily-run", h.dailyRun)
	r.Get("/summary", h.summary)
}

type calculateRequest struct {
	StockMovementID string `json:"stock_movement_id" validate:"required,uuid"`
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	calc, err := h.engine.Calculate(r.Context(), req.StockMovementID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, calc)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	history, err := h.engine.History(r.Context(), chi.URLParam(r, "movementID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}

func (h *Handler) dailyRun(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.enqueuer.EnqueueDailyStorageCalc(r.Context())
	if err != nil {
		h.logger.Error("enqueue daily calc", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	tanggal := truncateToDay(time.Now().UTC())
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		tanggal = t
	}
	s, err := h.summaries.GetDailySummary(r.Context(), tanggal)
	if err != nil {
		if errors.Is(err, ErrSummaryNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no summary for "+tanggal.Format("2006-01-02"))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
