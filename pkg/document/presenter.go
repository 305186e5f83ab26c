package document

import (
	"context"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// SuppressedClass is set on the wrapper of a blocked segment.
	SuppressedClass = "spoiler-blurred"
	// SegmentAttr carries the segment id on the wrapper.
	SegmentAttr = "data-spoiler-id"
	// ReasonAttr carries the suppression reason on the wrapper.
	ReasonAttr = "data-spoiler-reason"
)

const (
	suppressedStyle = "filter: blur(6px); cursor: pointer; transition: filter 0.3s"
	revealHint      = "Spoiler detected: click to reveal"
)

// Presenter renders suppression into the document markup: a blocked segment
// is wrapped in a blurred span carrying its id, which a page script can use to
// ask for a reveal. Presenter edits are not reported to subscribers.
type Presenter struct {
	doc *Document
}

// NewPresenter returns a presenter for doc.
func NewPresenter(doc *Document) *Presenter {
	return &Presenter{doc: doc}
}

// Suppress wraps the segment's text node. Suppressing an already wrapped
// segment only refreshes the reason.
func (p *Presenter) Suppress(_ context.Context, id SegmentID, reason string) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()

	n, err := p.doc.nodeLocked(id)
	if err != nil {
		return err
	}
	parent := n.Parent
	if isWrapper(parent, id) {
		setAttr(parent, ReasonAttr, reason)
		return nil
	}
	if !wrappable(parent) {
		return ErrUnsafeTarget
	}

	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: SuppressedClass},
			{Key: SegmentAttr, Val: strconv.FormatUint(uint64(id), 10)},
			{Key: ReasonAttr, Val: reason},
			{Key: "title", Val: revealHint},
			{Key: "style", Val: suppressedStyle},
		},
	}
	parent.InsertBefore(span, n)
	parent.RemoveChild(n)
	span.AppendChild(n)
	return nil
}

// Unsuppress removes the wrapper, leaving the text node where it was.
// Unsuppressing a segment that is not wrapped is a no-op.
func (p *Presenter) Unsuppress(_ context.Context, id SegmentID) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()

	n, err := p.doc.nodeLocked(id)
	if err != nil {
		return err
	}
	span := n.Parent
	if !isWrapper(span, id) {
		return nil
	}
	grand := span.Parent
	span.RemoveChild(n)
	grand.InsertBefore(n, span)
	grand.RemoveChild(span)
	return nil
}

// Suppressed reports whether the segment is currently wrapped.
func (p *Presenter) Suppressed(id SegmentID) bool {
	p.doc.mu.RLock()
	defer p.doc.mu.RUnlock()

	n, err := p.doc.nodeLocked(id)
	if err != nil {
		return false
	}
	return isWrapper(n.Parent, id)
}

func isWrapper(n *html.Node, id SegmentID) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	v, ok := attr(n, SegmentAttr)
	return ok && v == strconv.FormatUint(uint64(id), 10)
}

// wrappable rejects parents where a span would be dropped or shown as text.
func wrappable(parent *html.Node) bool {
	if parent == nil || parent.Type != html.ElementNode {
		return false
	}
	switch parent.DataAtom {
	case atom.Html, atom.Head, atom.Title, atom.Textarea, atom.Option, atom.Select:
		return false
	}
	return true
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
