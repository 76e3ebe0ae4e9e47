package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidID    = "INVALID_ID"
	CodeNotFound     = "NOT_FOUND"
	CodeMissingField = "MISSING_FIELD"
	CodeInvalidTag   = "INVALID_TAG"
	CodeEmptyTag     = "EMPTY_TAG"
	CodeInternal     = "INTERNAL_ERROR"
)

const (
	msgTaskNotFound    = "Task not found"
	msgInvalidTaskID   = "Invalid task ID"
	msgInternalError   = "Internal server error"
	msgValidationError = "Validation failed"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

// AsBusinessError достаёт BusinessError из цепочки ошибок
func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func NewNotFound(id string) *BusinessError {
	return NewBusinessError(CodeNotFound, msgTaskNotFound, ToDetail("id", id))
}

// NewValidationError хранит полный список ошибок в Details["errors"]
func NewValidationError(errs []string) *BusinessError {
	return NewBusinessError(CodeValidation, msgValidationError, ToDetail("errors", errs))
}

func NewInvalidID(id string) *BusinessError {
	return NewBusinessError(CodeInvalidID, msgInvalidTaskID, ToDetail("id", id))
}

func NewMissingField(field, message string) *BusinessError {
	return NewBusinessError(CodeMissingField, message, ToDetail("field", field))
}

func NewInvalidTag(message string) *BusinessError {
	return NewBusinessError(CodeInvalidTag, message)
}

func NewEmptyTag(message string) *BusinessError {
	return NewBusinessError(CodeEmptyTag, message)
}

// NewInternal скрывает причину от клиента, но сохраняет её для логов
func NewInternal(err error) *BusinessError {
	busErr := NewBusinessError(CodeInternal, msgInternalError)
	busErr.Err = err
	return busErr
}
