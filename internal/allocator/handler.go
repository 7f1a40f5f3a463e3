package allocator

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

// Handler wires HTTP endpoints for storage allocation.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the allocator handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers allocation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/put-away", h.putAway)
	r.Post("/pick", h.pick)
	r.Post("/relocate", h.relocate)
	r.Get("/eligible-batches", h.eligibleBatches)
}

type putAwayBatchRequest struct {
	BatchCode       string `json:"batch_code" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,gt=0"`
	ManufactureDate string `json:"manufacture_date"`
	ExpiryDate      string `json:"expiry_date"`
}

type putAwayRequest struct {
	ItemID  string                `json:"item_id" validate:"required,uuid"`
	LotID   string                `json:"lot_id" validate:"required,uuid"`
	Batches []putAwayBatchRequest `json:"batches" validate:"required,min=1,dive"`
}

func (h *Handler) putAway(w http.ResponseWriter, r *http.Request) {
	var req putAwayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := PutAwayInput{ItemID: req.ItemID, LotID: req.LotID}
	for _, b := range req.Batches {
		in := BatchInput{BatchCode: b.BatchCode, Quantity: b.Quantity}
		var err error
		if in.ManufactureDate, err = parseDate(b.ManufactureDate); err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "manufacture_date must be YYYY-MM-DD")
			return
		}
		if in.ExpiryDate, err = parseDate(b.ExpiryDate); err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "expiry_date must be YYYY-MM-DD")
			return
		}
		input.Batches = append(input.Batches, in)
	}
	result, err := h.service.PutAway(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type pickRequest struct {
	ItemID    string `json:"item_id" validate:"omitempty,uuid"`
	BatchID   string `json:"batch_id" validate:"omitempty,uuid"`
	BatchCode string `json:"batch_code"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) pick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Pick(r.Context(), PickInput{
		ItemID:    req.ItemID,
		BatchID:   req.BatchID,
		BatchCode: req.BatchCode,
		Quantity:  req.Quantity,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type relocateRequest struct {
	BatchID  string `json:"batch_id" validate:"required,uuid"`
	ToLotID  string `json:"to_lot_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason"`
}

func (h *Handler) relocate(w http.ResponseWriter, r *http.Request) {
	var req relocateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	rel, err := h.service.Relocate(r.Context(), RelocateInput{
		BatchID:  req.BatchID,
		ToLotID:  req.ToLotID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rel)
}

func (h *Handler) eligibleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.EligibleBatches(r.Context(), r.URL.Query().Get("item_id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batches)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
