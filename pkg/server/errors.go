package server

import (
	"errors"
	"net/http"

	gdserrors "github.com/sbrg/gds/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    gdserrors.Code `json:"code"`
	Message string         `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code gdserrors.Code) int {
	switch code {
	case gdserrors.ErrCodeInvalidInput, gdserrors.ErrCodeInvalidFormat, gdserrors.ErrCodeInvalidAnalysis,
		gdserrors.ErrCodeInvalidNodeSet, gdserrors.ErrCodeInvalidIdentifier, gdserrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case gdserrors.ErrCodeNotFound, gdserrors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case gdserrors.ErrCodeNodeNotFound, gdserrors.ErrCodeNoPath, gdserrors.ErrCodeNoConvergence:
		return http.StatusUnprocessableEntity
	case gdserrors.ErrCodeDatabase:
		return http.StatusBadGateway
	case gdserrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case gdserrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := gdserrors.GetCode(err)
	if code == "" {
		code = gdserrors.ErrCodeInternal
	}
	msg := gdserrors.UserMessage(err)
	var e *gdserrors.Error
	if errors.As(err, &e) && e.Cause != nil && code != gdserrors.ErrCodeInternal {
		msg += ": " + e.Cause.Error()
	}
	writeJSON(w, statusFor(code), errorBody{Error: errorDetail{Code: code, Message: msg}})
}
