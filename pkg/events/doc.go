// Package events records every segment that was suppressed as a detection
// event, so a user can review what was hidden and why.
//
// # Architecture
//
//  1. Recorder - turns tracker notifications into events, asynchronously
//  2. Storage - persists events (SQLite or in-memory)
//  3. Retention - prunes old events on a cron schedule
//  4. Export - writes events as JSON or CSV
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/events.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	defer rec.Close()
//
//	tracker := suppression.NewTracker(suppression.TrackerConfig{Sink: rec})
//
// Event content is a preview of the blocked text and is itself a spoiler;
// treat the database accordingly.
package events
