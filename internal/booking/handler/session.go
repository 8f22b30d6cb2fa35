package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fitbook/internal/booking/repository"
	"fitbook/internal/booking/service"
	apperrors "fitbook/pkg/errors"
	httputil "fitbook/pkg/http"
	"fitbook/pkg/logger"
	"fitbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SessionHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewSessionHandler(service service.BookingService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log,
	}
}

type actorPayload struct {
	ActorID   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
}

// bookResponse is the documented booking envelope: sessionId and message at
// the top level next to the success flag.
type bookResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Warning   string `json:"warning,omitempty"`
}

func (h *SessionHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.Book(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	message := "Session booked successfully"
	if result.Status == model.SessionPendingApproval {
		message = "Session created and awaiting trainer approval"
	}

	if err := httputil.WriteJSON(w, http.StatusCreated, bookResponse{
		Success:   true,
		SessionID: result.SessionID,
		Status:    result.Status,
		Message:   message,
		Warning:   result.Warning,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteJSON", "error", err)
	}
}

func (h *SessionHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	filter, err := extractSessionFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	sessions, count, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, sessions, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req service.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Cancel", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	session, err := h.service.Cancel(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionHandler) Edit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req service.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Edit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	session, err := h.service.Edit(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Edit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "Edit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.statusTransition(w, r, ps, "Approve", h.service.Approve)
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.statusTransition(w, r, ps, "Complete", h.service.Complete)
}

func (h *SessionHandler) NoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.statusTransition(w, r, ps, "NoShow", h.service.NoShow)
}

func (h *SessionHandler) statusTransition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	name string,
	fn func(ctx context.Context, id string, actorID string, actorRole string) error,
) {
	var actor actorPayload
	if err := json.NewDecoder(r.Body).Decode(&actor); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := fn(r.Context(), ps.ByName("id"), actor.ActorID, actor.ActorRole); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, nil); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func extractSessionFilter(r *http.Request) (repository.SessionFilter, error) {
	filter := repository.SessionFilter{
		TrainerID: r.URL.Query().Get("trainerId"),
		ClientID:  r.URL.Query().Get("clientId"),
		Status:    r.URL.Query().Get("status"),
	}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, apperrors.InvalidInput("from must be an RFC3339 timestamp")
		}
		filter.From = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, apperrors.InvalidInput("to must be an RFC3339 timestamp")
		}
		filter.To = &t
	}

	return filter, nil
}

func (h *SessionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/sessions", h.Book)
	router.GET("/api/v1/sessions", h.List)
	router.GET("/api/v1/sessions/id/:id", h.GetByID)
	router.PATCH("/api/v1/sessions/id/:id", h.Edit)
	router.PUT("/api/v1/sessions/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/sessions/id/:id/approve", h.Approve)
	router.POST("/api/v1/sessions/id/:id/complete", h.Complete)
	router.POST("/api/v1/sessions/id/:id/no-show", h.NoShow)
}
