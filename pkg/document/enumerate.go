package document

import (
	"iter"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultMinLength is the trimmed length below which text is not scanned.
// Short fragments score unreliably and are usually UI chrome.
const DefaultMinLength = 10

// DefaultExcludedTags are containers whose text is never rendered as content.
var DefaultExcludedTags = []string{"script", "style", "noscript", "template", "head", "iframe", "svg", "object"}

// Segment is a snapshot of one scannable text node.
type Segment struct {
	ID   SegmentID
	Text string
}

// Enumerator produces the scannable segments of a document.
type Enumerator struct {
	// MinLength is the minimum trimmed length in characters. Zero means
	// DefaultMinLength.
	MinLength int

	// ExcludedTags are element names whose subtrees are skipped. Nil means
	// DefaultExcludedTags. Elements carrying the hidden attribute are always
	// skipped.
	ExcludedTags []string

	// Skip, if set, drops segments the caller has already settled (for
	// example, text the user chose to reveal).
	Skip func(id SegmentID, text string) bool

	// OnError, if set, is told about segments that vanished between the
	// snapshot and the read. Such segments are skipped; the pass continues.
	OnError func(id SegmentID, err error)
}

// Enumerate returns a finite, lazy sequence of segments in document order.
// Candidate handles are captured up front; each text is read when yielded, so
// content removed mid-pass is skipped rather than scanned stale. Calling
// Enumerate again starts a fresh pass.
func (e *Enumerator) Enumerate(doc *Document) iter.Seq[Segment] {
	minLen := e.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	excluded := e.excludedSet()

	return func(yield func(Segment) bool) {
		for _, id := range doc.candidates(excluded) {
			text, err := doc.Text(id)
			if err != nil {
				if e.OnError != nil {
					e.OnError(id, err)
				}
				continue
			}
			if utf8.RuneCountInString(strings.TrimSpace(text)) < minLen {
				continue
			}
			if e.Skip != nil && e.Skip(id, text) {
				continue
			}
			if !yield(Segment{ID: id, Text: text}) {
				return
			}
		}
	}
}

func (e *Enumerator) excludedSet() map[string]struct{} {
	tags := e.ExcludedTags
	if tags == nil {
		tags = DefaultExcludedTags
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

// candidates lists text node handles outside excluded subtrees.
func (d *Document) candidates(excluded map[string]struct{}) []SegmentID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []SegmentID
	walk(d.root, func(n *html.Node) bool {
		switch n.Type {
		case html.ElementNode:
			if _, skip := excluded[n.Data]; skip {
				return false
			}
			if _, hidden := attr(n, "hidden"); hidden {
				return false
			}
		case html.TextNode:
			if id, ok := d.ids[n]; ok {
				ids = append(ids, id)
			}
		case html.CommentNode, html.DoctypeNode:
			return false
		}
		return true
	})
	return ids
}
