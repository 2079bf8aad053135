package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	httputil "atsumaru/pkg/http"
)

func (h *CalendarHandler) GetSummary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "GetSummary", err)
		return
	}

	summaries, err := h.summaries.GetSummary(r.Context(), ps.ByName("token"), start, end)
	if err != nil {
		h.writeError(w, "GetSummary", err)
		return
	}

	if err := httputil.WriteSuccess(w, summaries); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSummary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) GetSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}

	// 0 means "not provided"; the service substitutes the configured default.
	slotMinutes := 0
	if s := r.URL.Query().Get("slot_minutes"); s != "" {
		v, parseErr := strconv.Atoi(s)
		if parseErr != nil {
			h.writeBadRequest(w, "GetSlots", "Invalid slot_minutes parameter: "+s)
			return
		}
		slotMinutes = v
	}

	view, err := h.summaries.GetSlots(r.Context(), ps.ByName("token"), start, end, slotMinutes)
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlots", "operation", "WriteSuccess", "error", err)
	}
}
