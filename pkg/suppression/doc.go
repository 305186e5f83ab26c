// Package suppression tracks what has been decided about every segment and
// applies the consequences.
//
// Each segment moves through a small state machine:
//
//	Unscanned ──score──▶ Safe ──newer profile flags it──▶ Blocked
//	    │                                                    │
//	    └──────────────score──────────────▶ Blocked ──user──▶ Revealed
//
// Entering Blocked suppresses the segment through a Presenter and records a
// detection event; entering Revealed unsuppresses it. A Revealed segment is
// never blocked again while its text is unchanged. When the text of a segment
// changes it is treated as new content and starts over at Unscanned.
package suppression
