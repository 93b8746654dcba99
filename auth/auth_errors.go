package auth

import (
	"github.com/jrsteele09/go-lms-client/internal/errors"
)

// Fallback messages shown when the backend gave no reason.
const (
	LoginFailedMsg    = "Login failed"
	RegisterFailedMsg = "Registration failed"
	NetworkErrorMsg   = "Network error. Please check your connection."
)

// ErrorMessage is the text to show a user for err: the backend's own message
// when it sent one, a connectivity hint for network failures, else fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != defaultAPIMessage {
		return apiErr.Message
	}
	if errors.Is(err, errors.ErrNetwork) {
		return NetworkErrorMsg
	}
	return fallback
}

// defaultAPIMessage is what the api client records when the error body had no text.
const defaultAPIMessage = "An error occurred"
