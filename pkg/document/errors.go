package document

import "errors"

var (
	// ErrDetached is returned when a segment's node is no longer in the tree.
	ErrDetached = errors.New("segment is detached from the document")

	// ErrUnsafeTarget is returned when a text node sits where it cannot be
	// wrapped for presentation (raw text elements, directly under <html>).
	ErrUnsafeTarget = errors.New("segment cannot be suppressed in place")

	// ErrUnknownFragment is returned when removing a fragment that was never added.
	ErrUnknownFragment = errors.New("unknown fragment")
)
