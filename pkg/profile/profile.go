// Package profile loads the user's detection profile from disk and keeps it
// current while the file is edited.
package profile

import (
	"fmt"
	"os"

	"spoilerblock/shield/pkg/detection"
)

// Load reads a YAML or JSON profile file.
func Load(path string) (*detection.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %q: %w", path, err)
	}
	p, err := detection.DecodeProfile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", path, err)
	}
	return p, nil
}
