package services

import (
	"errors"

	"github.com/soaringjerry/Solace/internal/assessment"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string     { return e.Message }
func (e *ServiceError) ErrorCode() string { return string(e.Code) }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// flowError maps controller misuse to service errors.
func flowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, assessment.ErrFlowFinished):
		return NewConflictError("assessment already finished")
	case errors.Is(err, assessment.ErrQuestionNotVisible):
		return NewConflictError("question is not part of the current flow")
	case errors.Is(err, assessment.ErrUnknownQuestion):
		return NewNotFoundError("question not found")
	}
	return err
}
