package model

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing load failure messages.
const (
	MsgBadResponse    = "Bad response from Wikipedia."
	MsgNotEnough      = "Not enough events from Wikipedia."
	MsgLoadFailedBase = "Failed to load events."
)

// LoadError describes why events could not be loaded. Status, StatusText and
// URL are optional and zero when unknown.
type LoadError struct {
	Message    string `json:"message"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	URL        string `json:"url,omitempty"`
}

func (e *LoadError) Error() string {
	switch {
	case e.Status != 0 && e.URL != "":
		return fmt.Sprintf("%s (%d %s) %s", e.Message, e.Status, e.StatusText, e.URL)
	case e.URL != "":
		return fmt.Sprintf("%s %s", e.Message, e.URL)
	default:
		return e.Message
	}
}

// NewBadResponse builds the error for a non-2xx feed response.
func NewBadResponse(status int, url string) *LoadError {
	return &LoadError{
		Message:    MsgBadResponse,
		Status:     status,
		StatusText: http.StatusText(status),
		URL:        url,
	}
}

// NewNotEnough builds the error for a feed with too few usable events.
func NewNotEnough(url string) *LoadError {
	return &LoadError{Message: MsgNotEnough, URL: url}
}

// AsLoadError converts any error into a LoadError, keeping the message of
// transport failures.
func AsLoadError(err error) *LoadError {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	msg := err.Error()
	if msg == "" {
		msg = MsgLoadFailedBase
	}
	return &LoadError{Message: msg}
}
