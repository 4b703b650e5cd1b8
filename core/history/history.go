// Package history defines the run history kept across CLI invocations.
package history

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/clsprm/core/mip"
)

// Record captures one solve run.
type Record struct {
	RunID     string     `json:"run_id"`
	Timestamp time.Time  `json:"timestamp"`
	Input     string     `json:"input,omitempty"`
	SetupCost string     `json:"setup_cost"`
	Linkage   string     `json:"linkage"`
	Status    mip.Status `json:"status"`
	Objective float64    `json:"objective"`
	Nodes     int        `json:"nodes"`
	Duration  float64    `json:"duration_seconds"`
	Products  int        `json:"products"`
	Periods   int        `json:"periods"`
	Error     string     `json:"error,omitempty"`
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Start    time.Time
	End      time.Time
	Statuses []mip.Status
	// Limit keeps the most recent records.
	Limit int
}

// Match reports whether r passes the time and status filters.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, r.Status) {
		return false
	}
	return true
}

// Apply filters recs in order and applies the limit.
func (q Query) Apply(recs []Record) []Record {
	var out []Record
	for _, r := range recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
