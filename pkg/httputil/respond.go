package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/sawtooth/pkg/errors"
)

// ErrorBody is the JSON body of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor returns the HTTP status for an error code.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidParams,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidSpacing,
		errors.ErrCodeInvalidPath,
		errors.ErrCodeDegenerate:
		return http.StatusBadRequest
	case errors.ErrCodeLayoutOverlap:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// WriteError writes err as an ErrorBody and returns the status it used.
func WriteError(w http.ResponseWriter, err error) int {
	code := errors.GetCode(err)
	status := StatusFor(code)
	msg := message(err)
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		msg = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
	case status == http.StatusInternalServerError:
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, ErrorBody{Code: string(code), Message: msg})
	return status
}

// message is the user message followed by the cause, if any.
func message(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return errors.UserMessage(err)
}
