// Package ingest holds what every import source shares.
package ingest

import (
	"context"
	"io"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int   `json:"sessions_received"`
	SessionsInserted int   `json:"sessions_inserted"`
	SessionsSkipped  int   `json:"sessions_skipped"`
	SetsReceived     int   `json:"sets_received"`
	SetsInserted     int64 `json:"sets_inserted"`

	DefinitionsCreated int `json:"definitions_created,omitempty"`

	Message string `json:"message,omitempty"`
}

// Provider turns one export stream into stored sessions.
type Provider interface {
	Source() string
	Ingest(ctx context.Context, r io.Reader) (*Result, error)
}
