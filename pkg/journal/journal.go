// Package journal is the durable companion to the in-memory sink. The
// sink discards its batch on flush whether or not delivery succeeded;
// the journal keeps every offered entry so nothing is lost for good.
package journal

import (
	"context"
	"time"

	"github.com/okanacar/mailsink/pkg/severity"
)

// Record is one journaled log entry.
type Record struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"time"`
	Level    severity.Level `json:"level"`
	Source   string         `json:"source"`
	Message  string         `json:"message"`
	Fields   map[string]any `json:"fields,omitempty"`
	Retained bool           `json:"retained"` // whether the sink kept it for notification
}

// Filter controls which records a query returns.
type Filter struct {
	MinLevel  severity.Level
	Source    string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// Journal persists log entries independently of notification delivery.
type Journal interface {
	// Append stores a single record.
	Append(ctx context.Context, rec *Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, filter Filter) ([]Record, error)

	// Prune deletes records older than the cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources.
	Close() error
}
