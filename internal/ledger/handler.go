package ledger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the movement ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/movements", h.list)
	r.Post("/movements", h.intake)
	r.Get("/movements/{id}", h.get)
	r.Post("/movements/{id}/transfer", h.transfer)
	r.Post("/movements/{id}/pickup", h.pickup)
	r.Post("/movements/{id}/recalculate", h.recalculate)
}

type intakeRequest struct {
	ItemID            string   `json:"item_id" validate:"required,uuid"`
	Lokasi            string   `json:"lokasi"`
	TanggalMasuk      string   `json:"tanggal_masuk"`
	BeratKg           *float64 `json:"berat_kg" validate:"omitempty,gte=0"`
	VolumeM3          *float64 `json:"volume_m3" validate:"omitempty,gte=0"`
	DocumentReference string   `json:"document_reference"`
	Notes             string   `json:"notes"`
}

func (h *Handler) intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := IntakeInput{
		ItemID:            req.ItemID,
		Lokasi:            req.Lokasi,
		BeratKg:           req.BeratKg,
		VolumeM3:          req.VolumeM3,
		DocumentReference: req.DocumentReference,
		Notes:             req.Notes,
	}
	if req.TanggalMasuk != "" {
		t, err := time.Parse("2006-01-02", req.TanggalMasuk)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "tanggal_masuk must be YYYY-MM-DD")
			return
		}
		input.TanggalMasuk = t
	}
	movement, err := h.service.Intake(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	movement, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Lokasi: q.Get("lokasi"),
		Status: MovementStatus(q.Get("status")),
	}
	if from := q.Get("tanggal_masuk_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.TanggalMasukFrom = t
		}
	}
	if to := q.Get("tanggal_masuk_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.TanggalMasukTo = t
		}
	}
	movements, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	movement, err := h.service.TransferToLini2(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) pickup(w http.ResponseWriter, r *http.Request) {
	movement, err := h.service.Pickup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	movement, err := h.service.Recalculate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"stock_movement_id": movement.ID,
		"hari_simpan":       movement.HariSimpan,
		"total_biaya":       movement.TotalBiaya,
		"lokasi":            movement.Lokasi,
	})
}
