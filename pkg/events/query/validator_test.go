package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"spoilerblock/shield/pkg/events"
)

func TestValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		query   *events.Query
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid query with all filters",
			query: &events.Query{
				StartTime:     &past,
				EndTime:       &now,
				Source:        "feed.html",
				RiskLevel:     "high",
				MinConfidence: 50,
				Limit:         100,
				SortOrder:     "asc",
			},
		},
		{
			name:  "empty query",
			query: &events.Query{},
		},
		{
			name:    "negative limit",
			query:   &events.Query{Limit: -1},
			wantErr: true,
			errMsg:  "limit must be >= 0",
		},
		{
			name:    "limit exceeds max",
			query:   &events.Query{Limit: MaxLimit + 1},
			wantErr: true,
			errMsg:  "limit must be <=",
		},
		{
			name:    "negative offset",
			query:   &events.Query{Offset: -1},
			wantErr: true,
			errMsg:  "offset must be >= 0",
		},
		{
			name:    "invalid sort order",
			query:   &events.Query{SortOrder: "sideways"},
			wantErr: true,
			errMsg:  "invalid sort order",
		},
		{
			name:    "inverted time range",
			query:   &events.Query{StartTime: &now, EndTime: &past},
			wantErr: true,
			errMsg:  "start_time must be before end_time",
		},
		{
			name:    "confidence out of range",
			query:   &events.Query{MinConfidence: 101},
			wantErr: true,
			errMsg:  "min_confidence",
		},
		{
			name:    "unknown risk level",
			query:   &events.Query{RiskLevel: "extreme"},
			wantErr: true,
			errMsg:  "invalid risk level",
		},
		{
			name:  "risk level is case-insensitive",
			query: &events.Query{RiskLevel: "HIGH"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var qe *events.QueryError
			if !errors.As(err, &qe) {
				t.Errorf("Validate() error type = %T, want *events.QueryError", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &events.Query{RiskLevel: "Medium"}
	ApplyDefaults(q)

	if q.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", q.Limit, DefaultLimit)
	}
	if q.SortOrder != "desc" {
		t.Errorf("SortOrder = %q, want desc", q.SortOrder)
	}
	if q.RiskLevel != "medium" {
		t.Errorf("RiskLevel = %q, want medium", q.RiskLevel)
	}

	q = &events.Query{Limit: 5, SortOrder: "asc"}
	ApplyDefaults(q)
	if q.Limit != 5 || q.SortOrder != "asc" {
		t.Errorf("ApplyDefaults overwrote explicit values: %+v", q)
	}
}
