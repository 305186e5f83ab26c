// Package detection scores a unit of text for spoiler content.
//
// Scoring is rule based: user keywords, context terms (show or franchise
// names), a fixed generic spoiler vocabulary and a "subject + outcome verb"
// pattern each add points to a raw score. The raw score is compared against a
// sensitivity dependent threshold and scaled into a 0-100 confidence with a
// coarse risk tier.
//
// # Usage
//
//	profile := &detection.Profile{
//		BlockedKeywords: []string{"red wedding"},
//		ContextTerms:    []string{"Game of Thrones"},
//		Sensitivity:     detection.SensitivityMedium,
//	}
//
//	result := detection.Score("Game of Thrones: Robb dies at the red wedding", profile)
//	if result.IsSpoiler {
//		log.Info("spoiler", "confidence", result.Confidence, "risk", result.RiskLevel)
//	}
//
// # Determinism
//
// Score has no side effects and no hidden state, so identical arguments always
// produce identical results and an Engine may be shared across goroutines.
// Matching is substring based: a short keyword inside an unrelated longer word
// still counts. That is a known source of false positives.
package detection
