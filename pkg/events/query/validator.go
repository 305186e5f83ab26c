// Package query validates and normalizes detection event queries.
package query

import (
	"fmt"
	"strings"

	"spoilerblock/shield/pkg/events"
)

const (
	// DefaultLimit is used when a query does not set one.
	DefaultLimit = 100

	// MaxLimit caps a single page of results.
	MaxLimit = 10000
)

var validRiskLevels = map[string]bool{"low": true, "medium": true, "high": true}

// Validate reports the first invalid parameter of q.
func Validate(q *events.Query) error {
	if q.Limit < 0 {
		return events.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return events.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return events.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return events.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return events.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}
	if q.MinConfidence < 0 || q.MinConfidence > 100 {
		return events.NewQueryError(q, fmt.Errorf("min_confidence must be between 0 and 100, got %d", q.MinConfidence))
	}
	if q.RiskLevel != "" && !validRiskLevels[strings.ToLower(q.RiskLevel)] {
		return events.NewQueryError(q, fmt.Errorf("invalid risk level: %s (must be 'low', 'medium', or 'high')", q.RiskLevel))
	}
	return nil
}

// ApplyDefaults fills in the limit and sort order.
func ApplyDefaults(q *events.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	q.RiskLevel = strings.ToLower(q.RiskLevel)
}
