// internal/app/system/httpjson/httpjson.go
// Package httpjson holds the small request/response helpers shared by the
// API feature handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; API payloads here are small.
const maxBodyBytes = 1 << 20

// Decode reads a JSON body into dst. Returns a VALIDATION error on malformed
// or empty bodies.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.CodeValidation, "request body is required")
		}
		return apperr.Wrap(apperr.CodeValidation, "malformed JSON body", err)
	}
	return nil
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError maps err to its HTTP status and writes the error envelope.
// Coded errors keep their message; unclassified errors are logged and
// reported generically so internals never leak to clients.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)
	if code == "" {
		if log != nil {
			log.Error("unhandled error", zap.Error(err))
		}
		Write(w, status, errorBody{Error: "INTERNAL", Message: "internal server error"})
		return
	}
	var e *apperr.Error
	errors.As(err, &e)
	Write(w, status, errorBody{Error: string(code), Message: e.Message})
}
