package handler

import (
	"encoding/json"
	"net/http"

	"fitbook/internal/availability/service"
	httputil "fitbook/pkg/http"
	"fitbook/pkg/logger"
	"fitbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) ResolveDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	trainerID := ps.ByName("trainerID")
	date := r.URL.Query().Get("date")

	if date == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "date query parameter is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ResolveDay", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	day, err := h.service.ResolveDayClock(r.Context(), trainerID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ResolveDay", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, day); err != nil {
		h.log.Error("failed to write success response", "handler", "ResolveDay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) CreateTemplate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var template model.AvailabilityTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateTemplate", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateTemplate(r.Context(), &template); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateTemplate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, template); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateTemplate", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) ListTemplates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	trainerID := ps.ByName("trainerID")

	templates, err := h.service.ListTemplates(r.Context(), trainerID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListTemplates", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, templates); err != nil {
		h.log.Error("failed to write success response", "handler", "ListTemplates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.DeleteTemplate(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteTemplate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) CreateException(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var exception model.AvailabilityException
	if err := json.NewDecoder(r.Body).Decode(&exception); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateException", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateException(r.Context(), &exception); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateException", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, exception); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateException", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) ListExceptions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	trainerID := ps.ByName("trainerID")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListExceptions", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	exceptions, err := h.service.ListExceptions(r.Context(), trainerID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListExceptions", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, exceptions); err != nil {
		h.log.Error("failed to write success response", "handler", "ListExceptions", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteException(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.DeleteException(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteException", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability/:trainerID", h.ResolveDay)

	router.POST("/api/v1/availability-templates", h.CreateTemplate)
	router.GET("/api/v1/availability-templates/trainer/:trainerID", h.ListTemplates)
	router.DELETE("/api/v1/availability-templates/id/:id", h.DeleteTemplate)

	router.POST("/api/v1/availability-exceptions", h.CreateException)
	router.GET("/api/v1/availability-exceptions/trainer/:trainerID", h.ListExceptions)
	router.DELETE("/api/v1/availability-exceptions/id/:id", h.DeleteException)
}
