package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType категория ошибки приложения
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeProcessing    ErrorType = "processing"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeBusy          ErrorType = "busy"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError структурированная ошибка приложения
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: status, Cause: cause}
}

// NewValidationError ошибка входных данных
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError ошибка сетевого вызова
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewProcessingError ошибка обработки изображения
func NewProcessingError(message string, cause error) *AppError {
	return newError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewConfigurationError отсутствующий или битый ресурс (CSV, модель)
func NewConfigurationError(message string, cause error) *AppError {
	return newError(ErrorTypeConfiguration, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError объект не найден
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewBusyError обработка для этого потока уже идёт
func NewBusyError(message string, cause error) *AppError {
	return newError(ErrorTypeBusy, http.StatusTooManyRequests, message, cause)
}

// NewInternalError внутренняя ошибка
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType проверяет тип ошибки с учётом обёрток
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode возвращает HTTP-код для ошибки
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
