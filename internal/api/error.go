package api

import (
	"errors"
	"net/http"

	"support-chat-backend/internal/apperror"
)

const internalServerError = "Internal server error"

type HTTPError struct {
	StatusCode int
	Code       apperror.Code
	Message    string
	ErrorLog   error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.ErrorLog
}

type ApiError struct {
	Code    apperror.Code `json:"code"`
	Message string        `json:"message"`
}

var statusByCode = map[apperror.Code]int{
	apperror.CodeUnauthorized: http.StatusUnauthorized,
	apperror.CodeNotFound:     http.StatusNotFound,
	apperror.CodeBadRequest:   http.StatusBadRequest,
	apperror.CodeInternal:     http.StatusInternalServerError,
}

// FromError maps any handler error onto its HTTP shape. Internal failures never
// expose their message to the client.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == "" {
			httpErr.Code = codeForStatus(httpErr.StatusCode)
		}
		return httpErr
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Code != apperror.CodeInternal {
		status, ok := statusByCode[appErr.Code]
		if ok {
			return &HTTPError{StatusCode: status, Code: appErr.Code, Message: appErr.Message, ErrorLog: err}
		}
	}

	return &HTTPError{
		StatusCode: http.StatusInternalServerError,
		Code:       apperror.CodeInternal,
		Message:    internalServerError,
		ErrorLog:   err,
	}
}

func codeForStatus(status int) apperror.Code {
	for code, s := range statusByCode {
		if s == status {
			return code
		}
	}
	if status >= http.StatusInternalServerError {
		return apperror.CodeInternal
	}
	return apperror.CodeBadRequest
}
