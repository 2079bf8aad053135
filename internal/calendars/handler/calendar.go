package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"atsumaru/internal/calendars/service"
	httputil "atsumaru/pkg/http"
	"atsumaru/pkg/logger"
	"atsumaru/pkg/model"
)

// CalendarHandler exposes the calendar API. All routes except creation are
// addressed by the calendar's share token.
type CalendarHandler struct {
	calendars      service.CalendarService
	participants   service.ParticipantService
	availabilities service.AvailabilityService
	summaries      service.SummaryService
	log            *logger.Logger
}

func NewCalendarHandler(
	calendars service.CalendarService,
	participants service.ParticipantService,
	availabilities service.AvailabilityService,
	summaries service.SummaryService,
	log *logger.Logger,
) *CalendarHandler {
	return &CalendarHandler{
		calendars:      calendars,
		participants:   participants,
		availabilities: availabilities,
		summaries:      summaries,
		log:            log,
	}
}

// CalendarResponse is the token-scoped view: the calendar plus its members.
type CalendarResponse struct {
	Calendar     *model.Calendar      `json:"calendar"`
	Participants []*model.Participant `json:"participants"`
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cal model.Calendar
	if err := json.NewDecoder(r.Body).Decode(&cal); err != nil {
		h.writeBadRequest(w, "Create", "Invalid request body")
		return
	}

	if err := h.calendars.Create(r.Context(), &cal); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, cal); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	cal, participants, err := h.calendars.GetByToken(r.Context(), ps.ByName("token"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if participants == nil {
		participants = []*model.Participant{}
	}
	if err := httputil.WriteSuccess(w, CalendarResponse{
		Calendar:     cal,
		Participants: participants,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) UpdateSettings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.CalendarSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadRequest(w, "UpdateSettings", "Invalid request body")
		return
	}

	cal, err := h.calendars.UpdateSettings(r.Context(), ps.ByName("token"), &updates)
	if err != nil {
		h.writeError(w, "UpdateSettings", err)
		return
	}

	if err := httputil.WriteSuccess(w, cal); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateSettings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.calendars.Delete(r.Context(), ps.ByName("token")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CalendarHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CalendarHandler) writeBadRequest(w http.ResponseWriter, handlerName, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "operation", "WriteJSON", "error", err)
	}
}

func (h *CalendarHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/calendars", h.Create)
	router.GET("/api/v1/calendars/:token", h.Get)
	router.PATCH("/api/v1/calendars/:token/settings", h.UpdateSettings)
	router.DELETE("/api/v1/calendars/:token", h.Delete)

	router.GET("/api/v1/calendars/:token/participants", h.ListParticipants)
	router.POST("/api/v1/calendars/:token/participants", h.AddParticipant)
	router.DELETE("/api/v1/calendars/:token/participants/:id", h.DeleteParticipant)

	router.POST("/api/v1/calendars/:token/availabilities", h.CreateAvailability)
	router.PATCH("/api/v1/calendars/:token/availabilities/:id", h.UpdateAvailability)
	router.DELETE("/api/v1/calendars/:token/availabilities/:id", h.DeleteAvailability)

	router.POST("/api/v1/calendars/:token/recurrences", h.CreateRecurrence)
	router.DELETE("/api/v1/calendars/:token/recurrences/:id", h.DeleteRecurrence)
	router.POST("/api/v1/calendars/:token/recurrences/:id/exceptions", h.CreateException)
	router.DELETE("/api/v1/calendars/:token/recurrences/:id/exceptions/:date", h.DeleteException)

	router.GET("/api/v1/calendars/:token/summary", h.GetSummary)
	router.GET("/api/v1/calendars/:token/slots", h.GetSlots)
}
