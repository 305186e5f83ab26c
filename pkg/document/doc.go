// Package document holds the live HTML tree that the scanner works on.
//
// A Document wraps a golang.org/x/net/html node tree and gives every text node
// a stable SegmentID. The handle is independent of tree position, so inserting
// or removing other content never changes which segment an ID refers to.
//
// Hosts mutate the document through AppendFragment, RemoveFragment, SetText and
// Remove. Each mutation is reported to subscribers as a Change; that is the
// change-notification source the scanner listens to. Presentation changes made
// by Presenter (wrapping a blocked text node in a blurred span) are not
// reported, otherwise every block would trigger another scan.
//
// The Enumerator walks a document and lazily yields scannable Segments:
// text-bearing leaves outside non-content containers whose trimmed length
// reaches a minimum.
package document
