package health

import (
	"context"
	"fmt"
	"os"

	"spoilerblock/shield/pkg/events"
)

// StorageCheck verifies the event store answers a count query.
func StorageCheck(store events.Storage) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := store.Count(ctx, &events.Query{}); err != nil {
			return fmt.Errorf("event storage unavailable: %w", err)
		}
		return nil
	}
}

// DirCheck verifies that dir exists and is a directory.
func DirCheck(dir string) CheckFunc {
	return func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}

// ProfileCheck reports the error of the latest profile reload. The previous
// profile stays in effect meanwhile, so this only degrades readiness.
func ProfileCheck(lastErr func() error) CheckFunc {
	return func(context.Context) error {
		if err := lastErr(); err != nil {
			return fmt.Errorf("profile reload failed: %w", err)
		}
		return nil
	}
}
