package detection

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is a user's keyword and context configuration. A Profile is treated
// as immutable once handed to a scanner; replace it rather than editing it.
type Profile struct {
	// BlockedKeywords are matched case-insensitively as substrings.
	BlockedKeywords []string `json:"blockedKeywords" yaml:"blockedKeywords"`

	// ContextTerms signal topical relevance (show or franchise names). Their
	// presence amplifies generic spoiler vocabulary in the same text.
	ContextTerms []string `json:"contextTerms" yaml:"contextTerms"`

	// Sensitivity selects the spoiler threshold.
	Sensitivity Sensitivity `json:"sensitivity" yaml:"sensitivity"`

	// Version is assigned by the scanner when the profile becomes active.
	Version uint64 `json:"-" yaml:"-"`
}

// DefaultProfile returns an empty profile at medium sensitivity.
func DefaultProfile() *Profile {
	return &Profile{Sensitivity: SensitivityMedium}
}

// Validate checks the profile without modifying it. Empty or whitespace-only
// entries are rejected because an empty substring matches every text.
func (p *Profile) Validate() error {
	if p == nil {
		return newProfileError("", -1, "profile is nil")
	}
	if p.Sensitivity != "" && !p.Sensitivity.Valid() {
		return newProfileError("sensitivity", -1, "must be low, medium or high, got "+string(p.Sensitivity))
	}
	for i, k := range p.BlockedKeywords {
		if strings.TrimSpace(k) == "" {
			return newProfileError("blockedKeywords", i, "entry is empty")
		}
	}
	for i, c := range p.ContextTerms {
		if strings.TrimSpace(c) == "" {
			return newProfileError("contextTerms", i, "entry is empty")
		}
	}
	return nil
}

// Normalize returns a copy with entries trimmed, duplicates removed
// (case-insensitively, first casing wins) and an explicit sensitivity.
func (p *Profile) Normalize() *Profile {
	if p == nil {
		return DefaultProfile()
	}
	out := &Profile{
		BlockedKeywords: dedupeFold(p.BlockedKeywords),
		ContextTerms:    dedupeFold(p.ContextTerms),
		Sensitivity:     p.Sensitivity,
		Version:         p.Version,
	}
	if out.Sensitivity == "" {
		out.Sensitivity = SensitivityMedium
	}
	return out
}

func dedupeFold(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := normalize(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// rawProfile mirrors the external shape with untyped entries so that
// non-string values are rejected instead of coerced.
type rawProfile struct {
	BlockedKeywords []any `yaml:"blockedKeywords"`
	ContextTerms    []any `yaml:"contextTerms"`
	Sensitivity     any   `yaml:"sensitivity"`
}

// DecodeProfile decodes the external profile shape
//
//	{ "blockedKeywords": [...], "contextTerms": [...], "sensitivity": "low|medium|high" }
//
// from JSON or YAML. Absent or empty arrays are accepted. Any non-string
// entry, an unknown sensitivity or an empty entry yields a *ProfileError.
func DecodeProfile(data []byte) (*Profile, error) {
	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ProfileError{Index: -1, Message: "malformed document", Cause: err}
	}

	p := &Profile{}
	var err error
	if p.BlockedKeywords, err = stringEntries("blockedKeywords", raw.BlockedKeywords); err != nil {
		return nil, err
	}
	if p.ContextTerms, err = stringEntries("contextTerms", raw.ContextTerms); err != nil {
		return nil, err
	}

	switch s := raw.Sensitivity.(type) {
	case nil:
		p.Sensitivity = SensitivityMedium
	case string:
		sens, perr := ParseSensitivity(s)
		if perr != nil {
			return nil, &ProfileError{Field: "sensitivity", Index: -1, Message: "unknown value", Cause: perr}
		}
		p.Sensitivity = sens
	default:
		return nil, newProfileError("sensitivity", -1, "must be a string")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Normalize(), nil
}

func stringEntries(field string, in []any) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(in))
	for i, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil, newProfileError(field, i, "entry is not a string")
		}
		out = append(out, s)
	}
	return out, nil
}
