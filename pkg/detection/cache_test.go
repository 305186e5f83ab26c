package detection

import "testing"

type countingScorer struct {
	calls int
}

func (c *countingScorer) Score(text string, p *Profile) *Result {
	c.calls++
	return Score(text, p)
}

func TestCache_HitsPerProfileVersion(t *testing.T) {
	inner := &countingScorer{}
	cache, err := NewCache(inner, 16)
	if err != nil {
		t.Fatal(err)
	}

	p := &Profile{BlockedKeywords: []string{"wedding"}, Version: 1}
	first := cache.Score("There's a wedding next week", p)
	second := cache.Score("There's a wedding next week", p)

	if inner.calls != 1 {
		t.Errorf("inner scorer called %d times, want 1", inner.calls)
	}
	if first.RawScore != second.RawScore || !second.IsSpoiler {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}

	// A new profile version must not reuse old results.
	p2 := &Profile{Version: 2}
	if got := cache.Score("There's a wedding next week", p2); got.IsSpoiler {
		t.Error("result from version 1 leaked into version 2")
	}
	if inner.calls != 2 {
		t.Errorf("inner scorer called %d times, want 2", inner.calls)
	}
}

func TestCache_UnversionedBypass(t *testing.T) {
	inner := &countingScorer{}
	cache, _ := NewCache(inner, 0)

	cache.Score("Ned dies", DefaultProfile())
	cache.Score("Ned dies", DefaultProfile())

	if inner.calls != 2 {
		t.Errorf("inner scorer called %d times, want 2", inner.calls)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestCache_ResultsAreCopies(t *testing.T) {
	cache, _ := NewCache(NewEngine(EngineConfig{}), 4)
	p := &Profile{Version: 7}

	r := cache.Score("Ned dies", p)
	r.MatchedTerms[0] = "tampered"

	again, ok := cache.Lookup("Ned dies", p)
	if !ok {
		t.Fatal("Lookup() missed a cached entry")
	}
	if again.MatchedTerms[0] != ActionPatternMarker {
		t.Errorf("cached entry was mutated: %v", again.MatchedTerms)
	}

	cache.Purge()
	if _, ok := cache.Lookup("Ned dies", p); ok {
		t.Error("Lookup() hit after Purge()")
	}
}
