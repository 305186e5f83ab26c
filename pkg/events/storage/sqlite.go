package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/query"
)

const (
	// DriverCGO selects github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPureGo selects modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" is accepted.
	Path string

	// Driver is DriverCGO or DriverPureGo. Default: DriverCGO.
	Driver string

	// MaxOpenConns is the connection pool size. Default: 10
	MaxOpenConns int

	// MaxIdleConns is the idle pool size. Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging. Default: true
	WALMode bool

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/events.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements events.Storage on SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and creates the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	driver := config.Driver
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, events.NewStorageError("sqlite", "open", fmt.Errorf("unknown driver %q", driver))
	}

	logger := slog.Default().With("component", "events.storage.sqlite")

	db, err := sql.Open(driver, config.Path)
	if err != nil {
		return nil, events.NewStorageError("sqlite", "open", err)
	}
	if config.Path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		if config.MaxOpenConns > 0 {
			db.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.MaxIdleConns > 0 {
			db.SetMaxIdleConns(config.MaxIdleConns)
		}
	}

	s := &SQLiteStorage{db: db, config: config, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", driver,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return events.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return events.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return events.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return events.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return events.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return events.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store persists one event.
func (s *SQLiteStorage) Store(ctx context.Context, event *events.DetectionEvent) error {
	terms, err := json.Marshal(event.MatchedTerms)
	if err != nil {
		return events.NewStorageError("sqlite", "store", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO detection_events (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, int64(event.SegmentID), event.Source,
		event.IsSpoiler, event.Confidence, event.RiskLevel, string(terms),
		event.ContentPreview, int64(event.ProfileVersion), event.DetectedAt.UnixNano(),
	)
	if err != nil {
		return events.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves matching events.
func (s *SQLiteStorage) Query(ctx context.Context, q *events.Query) ([]*events.DetectionEvent, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	where, args := buildWhereClause(q)

	sqlQuery := "SELECT " + selectColumns + " FROM detection_events"
	if where != "" {
		sqlQuery += " WHERE " + where
	}
	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY detected_at %s, id %s", order, order)

	limit := query.DefaultLimit
	if q.Limit > 0 {
		limit = q.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if q.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, events.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	out := []*events.DetectionEvent{}
	for rows.Next() {
		ev, err := scanRow(rows)
		if err != nil {
			return nil, events.NewStorageError("sqlite", "scan", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, events.NewStorageError("sqlite", "query", err)
	}
	return out, nil
}

// Count returns the number of matching events.
func (s *SQLiteStorage) Count(ctx context.Context, q *events.Query) (int64, error) {
	where, args := buildWhereClause(q)
	sqlQuery := "SELECT COUNT(*) FROM detection_events"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, events.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching events. Pagination fields are ignored.
func (s *SQLiteStorage) Delete(ctx context.Context, q *events.Query) (int64, error) {
	where, args := buildWhereClause(q)
	sqlQuery := "DELETE FROM detection_events"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, events.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, events.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return events.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause returns the WHERE clause (without the keyword) and its args.
func buildWhereClause(q *events.Query) (string, []any) {
	var conditions []string
	var args []any

	if q.StartTime != nil {
		conditions = append(conditions, "detected_at >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "detected_at <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, q.Source)
	}
	if q.RiskLevel != "" {
		conditions = append(conditions, "risk_level = ?")
		args = append(args, strings.ToLower(q.RiskLevel))
	}
	if q.MinConfidence > 0 {
		conditions = append(conditions, "confidence >= ?")
		args = append(args, q.MinConfidence)
	}

	return strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*events.DetectionEvent, error) {
	var (
		ev             events.DetectionEvent
		segmentID      int64
		profileVersion int64
		detectedAt     int64
		terms          sql.NullString
		preview        sql.NullString
	)
	err := rows.Scan(
		&ev.ID, &segmentID, &ev.Source,
		&ev.IsSpoiler, &ev.Confidence, &ev.RiskLevel, &terms,
		&preview, &profileVersion, &detectedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.SegmentID = uint64(segmentID)
	ev.ProfileVersion = uint64(profileVersion)
	ev.DetectedAt = time.Unix(0, detectedAt)
	ev.ContentPreview = preview.String
	ev.MatchedTerms = []string{}
	if terms.Valid && terms.String != "" {
		if err := json.Unmarshal([]byte(terms.String), &ev.MatchedTerms); err != nil {
			return nil, fmt.Errorf("failed to decode matched terms: %w", err)
		}
		if ev.MatchedTerms == nil {
			ev.MatchedTerms = []string{}
		}
	}
	return &ev, nil
}
