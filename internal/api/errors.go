package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stitchkit/stitch/internal"
)

var codes = map[error]int{
	internal.ErrResourceNotFound:      http.StatusNotFound,
	internal.ErrAccessNotPermitted:    http.StatusForbidden,
	internal.ErrUnauthorized:          http.StatusUnauthorized,
	internal.ErrResourceAlreadyExists: http.StatusConflict,
}

// lookupHTTPCode maps a stitch domain error to an http status code
func lookupHTTPCode(err error) int {
	for domainErr, code := range codes {
		if errors.Is(err, domainErr) {
			return code
		}
	}
	var (
		missing    *internal.ErrMissingParameter
		foreignKey *internal.ForeignKeyError
		unmarshal  *unmarshalError
	)
	if errors.As(err, &missing) || errors.As(err, &unmarshal) {
		return http.StatusUnprocessableEntity
	}
	if errors.As(err, &foreignKey) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Error writes an HTTP response with a JSON-encoded error. A missing resource
// is reported with a 404 status and an error body, never as a null payload,
// so the caller receives an unambiguous absent-vs-present signal.
func Error(w http.ResponseWriter, err error) {
	status := lookupHTTPCode(err)
	b, marshalErr := json.Marshal(struct {
		Status int    `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}{
		Status: status,
		Title:  http.StatusText(status),
		Detail: err.Error(),
	})
	if marshalErr != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-type", mediaType)
	w.WriteHeader(status)
	w.Write(b)
}
