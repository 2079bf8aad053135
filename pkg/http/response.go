package http

import (
	"encoding/json"
	"net/http"

	apperrors "atsumaru/pkg/errors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps an error to its HTTP status via the AppError taxonomy.
// Unknown errors are reported as opaque internal failures.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)

	resp := ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Code == apperrors.CodeInternal {
		resp = ErrorResponse{Error: "Internal server error"}
	}

	return WriteJSON(w, appErr.StatusCode(), resp)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
