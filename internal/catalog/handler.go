package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the item and batch catalog.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Post("/items", h.createItem)
	r.Get("/items/{id}", h.getItem)
	r.Get("/batches", h.listBatches)
	r.Get("/batches/scan", h.scanBatch)
}

type itemRequest struct {
	SKU            string   `json:"sku" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Unit           string   `json:"unit"`
	LengthCm       float64  `json:"length_cm" validate:"gte=0"`
	WidthCm        float64  `json:"width_cm" validate:"gte=0"`
	HeightCm       float64  `json:"height_cm" validate:"gte=0"`
	ActualWeightKg *float64 `json:"actual_weight_kg"`
	VolumeM3       *float64 `json:"volume_m3"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateItem(r.Context(), Item{
		SKU:            req.SKU,
		Name:           req.Name,
		Unit:           req.Unit,
		LengthCm:       req.LengthCm,
		WidthCm:        req.WidthCm,
		HeightCm:       req.HeightCm,
		ActualWeightKg: req.ActualWeightKg,
		VolumeM3:       req.VolumeM3,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.ListBatches(r.Context())
	if err != nil {
		h.logger.Error("list batches", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batches)
}

func (h *Handler) scanBatch(w http.ResponseWriter, r *http.Request) {
	bc, err := h.service.ScanBatch(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bc)
}
