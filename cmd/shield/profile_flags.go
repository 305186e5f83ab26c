package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/profile"
)

// profileFlags lets one-shot commands build a profile from the profile file,
// from flags, or from both.
type profileFlags struct {
	path        string
	keywords    []string
	context     []string
	sensitivity string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "profile", "p", "", "profile file (default: profile.path from config)")
	cmd.Flags().StringSliceVarP(&f.keywords, "keyword", "k", nil, "blocked keyword (repeatable)")
	cmd.Flags().StringSliceVar(&f.context, "context", nil, "context term (repeatable)")
	cmd.Flags().StringVarP(&f.sensitivity, "sensitivity", "s", "", "sensitivity: low, medium, high")
}

// resolve loads the profile file and merges flag values into it. An explicit
// --profile must exist; the configured default may be absent.
func (f *profileFlags) resolve(cfg *config.Config) (*detection.Profile, error) {
	path := f.path
	explicit := path != ""
	if !explicit {
		path = cfg.Profile.Path
	}

	p := detection.DefaultProfile()
	if _, err := os.Stat(path); err == nil || explicit {
		loaded, err := profile.Load(path)
		if err != nil {
			return nil, err
		}
		p = loaded
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat profile %q: %w", path, err)
	}

	p.BlockedKeywords = append(p.BlockedKeywords, f.keywords...)
	p.ContextTerms = append(p.ContextTerms, f.context...)
	if f.sensitivity != "" {
		s, err := detection.ParseSensitivity(f.sensitivity)
		if err != nil {
			return nil, err
		}
		p.Sensitivity = s
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Normalize(), nil
}
