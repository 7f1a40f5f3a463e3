package customs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

// Handler wires HTTP endpoints for customs reporting.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the customs handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers customs routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/report", h.report)
	r.Post("/documents/{id}/send", h.send)
	r.Get("/documents/{id}", h.get)
	r.Get("/movements/{movementID}/documents", h.listByMovement)
}

type reportRequest struct {
	StockMovementID string `json:"stock_movement_id" validate:"required,uuid"`
	DocType         string `json:"doc_type" validate:"required,oneof=BC23 BC40"`
	DocNumber       string `json:"doc_number"`
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	doc, err := h.service.ReportMovement(r.Context(), ReportInput{
		StockMovementID: req.StockMovementID,
		DocType:         DocType(req.DocType),
		DocNumber:       req.DocNumber,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Send(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) listByMovement(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListByMovement(r.Context(), chi.URLParam(r, "movementID"))
	if err != nil {
		h.logger.Error("list customs documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}
