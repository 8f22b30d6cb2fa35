package handler

import (
	"encoding/json"
	"net/http"

	"fitbook/internal/recurring/service"
	httputil "fitbook/pkg/http"
	"fitbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type RecurringHandler struct {
	service service.RecurringService
	log     *logger.Logger
}

func NewRecurringHandler(service service.RecurringService, log *logger.Logger) *RecurringHandler {
	return &RecurringHandler{
		service: service,
		log:     log,
	}
}

func (h *RecurringHandler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Generate", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	switch req.Action {
	case service.ActionPreview:
		result, err := h.service.Preview(r.Context(), &req)
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Generate", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		if err := httputil.WriteSuccess(w, result); err != nil {
			h.log.Error("failed to write success response", "handler", "Generate", "operation", "WriteSuccess", "error", err)
		}
	case service.ActionConfirm:
		result, err := h.service.Confirm(r.Context(), &req)
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Generate", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		if err := httputil.WriteCreated(w, result); err != nil {
			h.log.Error("failed to write created response", "handler", "Generate", "operation", "WriteCreated", "error", err)
		}
	default:
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "action must be preview or confirm",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Generate", "operation", "WriteJSON", "error", writeErr)
		}
	}
}

func (h *RecurringHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/recurring", h.Generate)
}
