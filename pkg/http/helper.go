package http

import (
	"net/http"

	apperrors "atsumaru/pkg/errors"
)

// ExtractDateRange reads the start/end query params of a summary request.
// Both are required "YYYY-MM-DD" strings; format validation happens in the
// service layer.
func ExtractDateRange(r *http.Request) (string, string, error) {
	query := r.URL.Query()

	start := query.Get("start")
	end := query.Get("end")
	if start == "" || end == "" {
		return "", "", apperrors.InvalidInput("'start' and 'end' query parameters are required")
	}

	return start, end, nil
}
