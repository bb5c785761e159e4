package v1

import (
	"errors"
	"io"
	"strings"
)

// sanitizeValidationError returns a user-friendly message for binding errors.
// Raw decoder errors expose internal structure and never reach clients.
func sanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	msg := err.Error()
	if strings.Contains(msg, "validation") ||
		strings.Contains(msg, "cannot unmarshal") ||
		strings.Contains(msg, "invalid character") ||
		strings.Contains(msg, "bind") ||
		strings.Contains(msg, "Key:") {
		return "Invalid request"
	}
	if len(msg) < 100 && !strings.Contains(msg, "Error:") {
		return msg
	}
	return "Invalid request"
}
