package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for card and upload operations.
var (
	// ErrValidation indicates a required field is missing.
	// HTTP Status: 400 Bad Request
	ErrValidation = errors.New("missing required fields")

	// ErrCardNotFound indicates no card matches the requested id.
	// HTTP Status: 404 Not Found
	ErrCardNotFound = errors.New("card not found")

	// ErrStore wraps any Card Store failure.
	// HTTP Status: 500 Internal Server Error
	ErrStore = errors.New("card store error")

	// ErrUpload wraps a blob storage write failure.
	// HTTP Status: 500 Internal Server Error
	ErrUpload = errors.New("upload failed")

	// ErrNoFile indicates the upload request carried no file.
	// HTTP Status: 400 Bad Request
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge indicates the upload exceeded the configured limit.
	// HTTP Status: 400 Bad Request
	ErrFileTooLarge = errors.New("file too large")

	// ErrStorageNotConfigured indicates the blob backend or its credential is missing.
	// HTTP Status: 500 Internal Server Error
	ErrStorageNotConfigured = errors.New("blob storage not configured")

	// ErrBlobNotFound indicates no stored object matches the key.
	// HTTP Status: 404 Not Found
	ErrBlobNotFound = errors.New("file not found")
)

// ValidationError lists the required fields that were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
