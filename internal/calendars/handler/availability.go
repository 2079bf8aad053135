package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	httputil "atsumaru/pkg/http"
	"atsumaru/pkg/model"
)

func (h *CalendarHandler) CreateAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var av model.Availability
	if err := json.NewDecoder(r.Body).Decode(&av); err != nil {
		h.writeBadRequest(w, "CreateAvailability", "Invalid request body")
		return
	}

	if err := h.availabilities.Create(r.Context(), ps.ByName("token"), &av); err != nil {
		h.writeError(w, "CreateAvailability", err)
		return
	}

	if err := httputil.WriteCreated(w, av); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateAvailability", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.AvailabilityUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadRequest(w, "UpdateAvailability", "Invalid request body")
		return
	}

	av, err := h.availabilities.Update(r.Context(), ps.ByName("token"), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "UpdateAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, av); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.availabilities.Delete(r.Context(), ps.ByName("token"), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteAvailability", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CalendarHandler) CreateRecurrence(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var rec model.Recurrence
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		h.writeBadRequest(w, "CreateRecurrence", "Invalid request body")
		return
	}

	if err := h.availabilities.CreateRecurrence(r.Context(), ps.ByName("token"), &rec); err != nil {
		h.writeError(w, "CreateRecurrence", err)
		return
	}

	if err := httputil.WriteCreated(w, rec); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRecurrence", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) DeleteRecurrence(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.availabilities.DeleteRecurrence(r.Context(), ps.ByName("token"), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteRecurrence", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CalendarHandler) CreateException(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var ex model.RecurrenceException
	if err := json.NewDecoder(r.Body).Decode(&ex); err != nil {
		h.writeBadRequest(w, "CreateException", "Invalid request body")
		return
	}

	if err := h.availabilities.CreateException(r.Context(), ps.ByName("token"), ps.ByName("id"), &ex); err != nil {
		h.writeError(w, "CreateException", err)
		return
	}

	if err := httputil.WriteCreated(w, ex); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateException", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) DeleteException(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.availabilities.DeleteException(r.Context(), ps.ByName("token"), ps.ByName("id"), ps.ByName("date"))
	if err != nil {
		h.writeError(w, "DeleteException", err)
		return
	}
	httputil.WriteNoContent(w)
}
