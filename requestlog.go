package sqlpilot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RequestLogEntry records one completed request for audit purposes.
type RequestLogEntry struct {
	RequestID   string    `json:"request_id"`
	SessionID   string    `json:"session_id"`
	RequestText string    `json:"request_text"`
	Intent      string    `json:"intent"`
	Confidence  float64   `json:"confidence"`
	SQL         string    `json:"sql,omitempty"`
	PathTaken   string    `json:"path_taken"`
	Error       string    `json:"error,omitempty"`
	StartTime   time.Time `json:"start_time"`
	Duration    float64   `json:"duration"`
}

// RequestLogger defines the per-request audit logging interface.
type RequestLogger interface {
	// LogRequest logs a completed request
	LogRequest(ctx context.Context, entry *RequestLogEntry) error

	// GetRequestHistory retrieves the request log for a session
	GetRequestHistory(ctx context.Context, sessionID string) ([]*RequestLogEntry, error)
}

// FileRequestLogger is an implementation of RequestLogger that logs to a
// file per session, formatted as newline-delimited JSON.
type FileRequestLogger struct {
	directory string
}

func NewFileRequestLogger(directory string) *FileRequestLogger {
	return &FileRequestLogger{directory: directory}
}

func (l *FileRequestLogger) sessionLogPath(sessionID string) string {
	return filepath.Join(l.directory, fmt.Sprintf("%s.jsonl", sessionID))
}

func (l *FileRequestLogger) GetRequestHistory(ctx context.Context, sessionID string) ([]*RequestLogEntry, error) {
	data, err := os.ReadFile(l.sessionLogPath(sessionID))
	if err != nil {
		return nil, err
	}
	var entries []*RequestLogEntry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		var entry RequestLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (l *FileRequestLogger) LogRequest(ctx context.Context, entry *RequestLogEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	filePath := l.sessionLogPath(entry.SessionID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(encoded, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// NullRequestLogger discards all entries.
type NullRequestLogger struct{}

func NewNullRequestLogger() *NullRequestLogger {
	return &NullRequestLogger{}
}

func (l *NullRequestLogger) LogRequest(ctx context.Context, entry *RequestLogEntry) error {
	return nil
}

func (l *NullRequestLogger) GetRequestHistory(ctx context.Context, sessionID string) ([]*RequestLogEntry, error) {
	return nil, nil
}
