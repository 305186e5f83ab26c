package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the detection event tables.
const Schema = `
CREATE TABLE IF NOT EXISTS detection_events (
    id TEXT PRIMARY KEY,
    segment_id INTEGER NOT NULL,
    source TEXT NOT NULL DEFAULT '',

    is_spoiler BOOLEAN NOT NULL,
    confidence INTEGER NOT NULL,
    risk_level TEXT NOT NULL,
    matched_terms TEXT,

    content_preview TEXT,
    profile_version INTEGER NOT NULL DEFAULT 0,

    -- Unix nanoseconds
    detected_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detection_events_detected_at ON detection_events(detected_at);
CREATE INDEX IF NOT EXISTS idx_detection_events_source ON detection_events(source);
CREATE INDEX IF NOT EXISTS idx_detection_events_risk_level ON detection_events(risk_level);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the newest schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, segment_id, source, is_spoiler, confidence, risk_level,
	matched_terms, content_preview, profile_version, detected_at`
