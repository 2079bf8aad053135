package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	httputil "atsumaru/pkg/http"
	"atsumaru/pkg/model"
)

func (h *CalendarHandler) AddParticipant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p model.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeBadRequest(w, "AddParticipant", "Invalid request body")
		return
	}

	if err := h.participants.Add(r.Context(), ps.ByName("token"), &p); err != nil {
		h.writeError(w, "AddParticipant", err)
		return
	}

	if err := httputil.WriteCreated(w, p); err != nil {
		h.log.Error("failed to write created response", "handler", "AddParticipant", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) ListParticipants(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	participants, err := h.participants.List(r.Context(), ps.ByName("token"))
	if err != nil {
		h.writeError(w, "ListParticipants", err)
		return
	}

	if participants == nil {
		participants = []*model.Participant{}
	}
	if err := httputil.WriteSuccess(w, participants); err != nil {
		h.log.Error("failed to write success response", "handler", "ListParticipants", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) DeleteParticipant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.participants.Delete(r.Context(), ps.ByName("token"), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteParticipant", err)
		return
	}
	httputil.WriteNoContent(w)
}
