package document

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SegmentID is a stable handle for one text node.
type SegmentID uint64

// FragmentAttr marks the container element of a named fragment.
const FragmentAttr = "data-fragment"

// ChangeKind describes what a mutation did.
type ChangeKind int

const (
	// ChangeInserted means new content was added.
	ChangeInserted ChangeKind = iota
	// ChangeRemoved means content was removed.
	ChangeRemoved
	// ChangeText means a text node's content was replaced.
	ChangeText
	// ChangeReset means the whole document was replaced.
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInserted:
		return "inserted"
	case ChangeRemoved:
		return "removed"
	case ChangeText:
		return "text"
	case ChangeReset:
		return "reset"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is delivered to subscribers after each mutation.
type Change struct {
	Kind ChangeKind

	// Fragment names the fragment involved, if any.
	Fragment string

	// Segments are the segments added or modified.
	Segments []SegmentID

	// Removed are segments that no longer exist.
	Removed []SegmentID
}

type fragment struct {
	node *html.Node
	sum  uint64
}

// Document is a mutable HTML tree with stable segment handles. All methods are
// safe for concurrent use.
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	body      *html.Node
	ids       map[*html.Node]SegmentID
	nodes     map[SegmentID]*html.Node
	next      SegmentID
	fragments map[string]*fragment

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int

	logger *slog.Logger
}

// New returns an empty document (<html><head></head><body></body></html>).
func New() *Document {
	d, err := Parse(strings.NewReader(""))
	if err != nil {
		// html.Parse never fails on an empty reader
		panic(err)
	}
	return d
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	d := &Document{
		observers: make(map[int]func(Change)),
		logger:    slog.Default().With("component", "document"),
	}
	if err := d.load(r); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) load(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	d.root = root
	d.body = findElement(root, atom.Body)
	d.ids = make(map[*html.Node]SegmentID)
	d.nodes = make(map[SegmentID]*html.Node)
	d.fragments = make(map[string]*fragment)
	d.indexLocked(root)
	return nil
}

// Reset replaces the whole document, as a page navigation would. Every
// existing segment is reported as removed.
func (d *Document) Reset(r io.Reader) error {
	d.mu.Lock()
	removed := d.allIDsLocked()
	// d.next survives load, so IDs are never reused across resets.
	if err := d.load(r); err != nil {
		d.mu.Unlock()
		return err
	}
	added := d.allIDsLocked()
	d.mu.Unlock()

	d.notify(Change{Kind: ChangeReset, Segments: added, Removed: removed})
	return nil
}

// AppendFragment parses src as body content and places it in a container
// named name at the end of the body. An existing fragment of the same name is
// replaced in place; identical source is a no-op.
func (d *Document) AppendFragment(name, src string) error {
	sum := xxhash.Sum64String(src)

	d.mu.Lock()
	if old, ok := d.fragments[name]; ok && old.sum == sum {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	bodyCtx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), bodyCtx)
	if err != nil {
		return fmt.Errorf("failed to parse fragment %q: %w", name, err)
	}

	d.mu.Lock()
	var removed []SegmentID
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: FragmentAttr, Val: name}},
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	if old, ok := d.fragments[name]; ok {
		removed = d.unindexLocked(old.node)
		parent := old.node.Parent
		if parent == nil {
			parent = d.body
			parent.AppendChild(container)
		} else {
			parent.InsertBefore(container, old.node)
			parent.RemoveChild(old.node)
		}
	} else {
		d.body.AppendChild(container)
	}

	added := d.indexLocked(container)
	d.fragments[name] = &fragment{node: container, sum: sum}
	d.mu.Unlock()

	d.notify(Change{Kind: ChangeInserted, Fragment: name, Segments: added, Removed: removed})
	return nil
}

// RemoveFragment drops a fragment and all of its segments.
func (d *Document) RemoveFragment(name string) error {
	d.mu.Lock()
	f, ok := d.fragments[name]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFragment, name)
	}
	removed := d.unindexLocked(f.node)
	if f.node.Parent != nil {
		f.node.Parent.RemoveChild(f.node)
	}
	delete(d.fragments, name)
	d.mu.Unlock()

	d.notify(Change{Kind: ChangeRemoved, Fragment: name, Removed: removed})
	return nil
}

// Fragments returns the names of the current fragments in document order.
func (d *Document) Fragments() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var names []string
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if name, ok := attr(n, FragmentAttr); ok {
				if _, tracked := d.fragments[name]; tracked {
					names = append(names, name)
				}
			}
		}
		return true
	})
	return names
}

// SetText replaces the content of a text node. The segment keeps its ID; the
// changed content is what makes it a new segment for scanning purposes.
func (d *Document) SetText(id SegmentID, text string) error {
	d.mu.Lock()
	n, err := d.nodeLocked(id)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if n.Data == text {
		d.mu.Unlock()
		return nil
	}
	n.Data = text
	d.mu.Unlock()

	d.notify(Change{Kind: ChangeText, Segments: []SegmentID{id}})
	return nil
}

// Remove detaches a text node from the tree.
func (d *Document) Remove(id SegmentID) error {
	d.mu.Lock()
	n, err := d.nodeLocked(id)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	parent := n.Parent
	parent.RemoveChild(n)
	if isWrapper(parent, id) && parent.Parent != nil {
		parent.Parent.RemoveChild(parent)
	}
	delete(d.ids, n)
	delete(d.nodes, id)
	d.mu.Unlock()

	d.notify(Change{Kind: ChangeRemoved, Removed: []SegmentID{id}})
	return nil
}

// Text returns the current content of a segment.
func (d *Document) Text(id SegmentID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, err := d.nodeLocked(id)
	if err != nil {
		return "", err
	}
	return n.Data, nil
}

// Contains reports whether id refers to an attached text node.
func (d *Document) Contains(id SegmentID) bool {
	_, err := d.Text(id)
	return err == nil
}

// FragmentOf returns the name of the fragment containing the segment, or ""
// for text that came with the document itself.
func (d *Document) FragmentOf(id SegmentID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, err := d.nodeLocked(id)
	if err != nil {
		return ""
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if name, ok := attr(p, FragmentAttr); ok {
			return name
		}
	}
	return ""
}

// SegmentIDs returns every text node handle in document order.
func (d *Document) SegmentIDs() []SegmentID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.allIDsLocked()
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// Subscribe registers fn for every subsequent Change. Observers run on the
// mutating goroutine after the document lock is released. The returned
// function unsubscribes.
func (d *Document) Subscribe(fn func(Change)) (cancel func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			delete(d.observers, id)
			d.obsMu.Unlock()
		})
	}
}

func (d *Document) notify(c Change) {
	d.obsMu.Lock()
	keys := make([]int, 0, len(d.observers))
	for k := range d.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fns := make([]func(Change), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, d.observers[k])
	}
	d.obsMu.Unlock()

	d.logger.Debug("document changed",
		"kind", c.Kind.String(),
		"fragment", c.Fragment,
		"segments", len(c.Segments),
		"removed", len(c.Removed),
	)

	for _, fn := range fns {
		fn(c)
	}
}

// nodeLocked resolves an id to an attached text node.
func (d *Document) nodeLocked(id SegmentID) (*html.Node, error) {
	n, ok := d.nodes[id]
	if !ok || !d.attachedLocked(n) {
		return nil, fmt.Errorf("%w: segment %d", ErrDetached, id)
	}
	return n, nil
}

func (d *Document) attachedLocked(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// indexLocked assigns IDs to unseen text nodes under n and returns them.
func (d *Document) indexLocked(n *html.Node) []SegmentID {
	var added []SegmentID
	walk(n, func(c *html.Node) bool {
		if c.Type != html.TextNode {
			return true
		}
		if _, ok := d.ids[c]; ok {
			return true
		}
		d.next++
		d.ids[c] = d.next
		d.nodes[d.next] = c
		added = append(added, d.next)
		return true
	})
	return added
}

func (d *Document) unindexLocked(n *html.Node) []SegmentID {
	var removed []SegmentID
	walk(n, func(c *html.Node) bool {
		if id, ok := d.ids[c]; ok {
			removed = append(removed, id)
			delete(d.ids, c)
			delete(d.nodes, id)
		}
		return true
	})
	return removed
}

func (d *Document) allIDsLocked() []SegmentID {
	var out []SegmentID
	walk(d.root, func(n *html.Node) bool {
		if id, ok := d.ids[n]; ok {
			out = append(out, id)
		}
		return true
	})
	return out
}

// walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		walk(c, fn)
		c = next
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && c.DataAtom == a {
			found = c
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
