// Package api provides common facilities for the JSON API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/stitchkit/stitch/internal/logr"
)

const mediaType = "application/json"

// Responder writes JSON-encoded API responses.
type Responder struct {
	logr.Logger
}

func NewResponder(logger logr.Logger) *Responder {
	return &Responder{Logger: logger}
}

// Respond writes the payload as a JSON response body with the given status.
func (r *Responder) Respond(w http.ResponseWriter, payload any, status int) {
	b, err := json.Marshal(payload)
	if err != nil {
		Error(w, err)
		return
	}
	w.Header().Set("Content-type", mediaType)
	w.WriteHeader(status)
	w.Write(b)
}

// Unmarshal decodes a JSON request body into dst.
func Unmarshal(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &unmarshalError{err}
	}
	return nil
}

type unmarshalError struct {
	err error
}

func (e *unmarshalError) Error() string { return "unmarshaling request body: " + e.err.Error() }
