package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tsawler/slidetag"
	"github.com/tsawler/slidetag/internal/service"
	"github.com/tsawler/slidetag/internal/storage"
)

const (
	msgNoFile      = "No file uploaded."
	msgInvalidType = "Invalid file type. Only Excel, PDF, and PPT files are allowed."
	msgUploaded    = "File uploaded successfully"
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps an error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	// Check for existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Map sentinel errors, most specific first
	switch {
	case errors.Is(err, slidetag.ErrTooLarge):
		return NewAppError(http.StatusRequestEntityTooLarge, "Document too large", err)
	case errors.Is(err, service.ErrUnsupportedFormat):
		return NewAppError(http.StatusBadRequest, "Only .pptx documents can be extracted", err)
	case errors.Is(err, slidetag.ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, "Invalid document", err)
	case errors.Is(err, slidetag.ErrMalformedDocument):
		return NewAppError(http.StatusUnprocessableEntity, "Malformed presentation", err)
	case errors.Is(err, storage.ErrUnsupportedType):
		return NewAppError(http.StatusBadRequest, msgInvalidType, err)
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrNotFound):
		return NewAppError(http.StatusNotFound, "File not found", err)
	}

	// Default to internal server error
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
