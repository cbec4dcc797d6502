package domain

import (
	"fmt"
	"time"
)

type ShareState string

const (
	ShareIdle    ShareState = "idle"
	ShareSharing ShareState = "sharing"
)

type ShareStatus struct {
	State       ShareState `json:"state"`
	URL         string     `json:"url,omitempty"`
	FilePath    string     `json:"filePath,omitempty"`
	SessionID   string     `json:"sessionId,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	Connections int        `json:"connections"`
}

// Result codes carried by ShareResult when Success is false.
const (
	CodeNoFileSelected = "no_file_selected"
	CodeNotRunning     = "not_running"
	CodeBindFailed     = "bind_failed"
	CodeShutdownFailed = "shutdown_failed"
)

// ShareResult is the value returned across the desktop-shell boundary for
// start and stop operations.
type ShareResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Err returns nil for a successful result, otherwise the sentinel error
// matching Code wrapped with Message.
func (r ShareResult) Err() error {
	if r.Success {
		return nil
	}
	var base error
	switch r.Code {
	case CodeNoFileSelected:
		base = ErrNoFileSelected
	case CodeNotRunning:
		base = ErrNotRunning
	case CodeBindFailed:
		base = ErrBind
	case CodeShutdownFailed:
		base = ErrShutdown
	default:
		return fmt.Errorf("sharing failed: %s", r.Message)
	}
	if r.Message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, r.Message)
}

type ShareRecord struct {
	ID        string     `json:"id"`
	FilePath  string     `json:"filePath"`
	URL       string     `json:"url"`
	StartedAt time.Time  `json:"startedAt"`
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`
	StopError string     `json:"stopError,omitempty"`
}
