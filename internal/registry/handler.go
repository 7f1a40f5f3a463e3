package registry

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the location registry.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the registry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/warehouses", h.listWarehouses)
	r.Post("/warehouses", h.createWarehouse)
	r.Get("/zones", h.listZones)
	r.Post("/zones", h.createZone)
	r.Get("/racks", h.listRacks)
	r.Post("/racks", h.createRack)
	r.Get("/lots", h.listLots)
	r.Post("/lots", h.createLot)
	r.Get("/lots/available", h.availableLots)
	r.Get("/lots/{id}", h.getLot)
	r.Get("/reconcile", h.reconcile)
}

type warehouseRequest struct {
	Name          string `json:"name" validate:"required"`
	Location      string `json:"location"`
	TotalCapacity string `json:"total_capacity"`
}

type zoneRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required"`
}

type rackRequest struct {
	ZoneID string `json:"zone_id" validate:"required,uuid"`
	Code   string `json:"code" validate:"required"`
}

type lotRequest struct {
	RackID   string `json:"rack_id" validate:"required,uuid"`
	Code     string `json:"code" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateWarehouse(r.Context(), Warehouse{Name: req.Name, Location: req.Location, TotalCapacity: req.TotalCapacity})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListWarehouses(r.Context())
	if err != nil {
		h.logger.Error("list warehouses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateZone(r.Context(), Zone{WarehouseID: req.WarehouseID, Name: req.Name})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listZones(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListZones(r.Context(), r.URL.Query().Get("warehouse_id"))
	if err != nil {
		h.logger.Error("list zones", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createRack(w http.ResponseWriter, r *http.Request) {
	var req rackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateRack(r.Context(), Rack{ZoneID: req.ZoneID, Code: req.Code})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) createLot(w http.ResponseWriter, r *http.Request) {
	var req lotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateLot(r.Context(), Lot{RackID: req.RackID, Code: req.Code, Capacity: req.Capacity})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listRacks(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListRacks(r.Context(), r.URL.Query().Get("zone_id"))
	if err != nil {
		h.logger.Error("list racks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getLot(w http.ResponseWriter, r *http.Request) {
	lot, err := h.service.GetLot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lot)
}

func (h *Handler) listLots(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListLots(r.Context())
	if err != nil {
		h.logger.Error("list lots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) availableLots(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.AvailableLots(r.Context(), r.URL.Query().Get("warehouse_id"))
	if err != nil {
		h.logger.Error("available lots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.logger.Error("reconcile loads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"consistent": len(mismatches) == 0,
		"mismatches": mismatches,
	})
}
