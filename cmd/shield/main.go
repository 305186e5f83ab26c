// Shield detects spoilers in page text and suppresses them until the reader
// chooses to reveal them.
//
// It watches a directory of HTML fragments that make up a live page, scores
// every text segment against the reader's spoiler profile, blurs the ones
// that match and keeps a log of detections.
//
// Usage:
//
//	# Watch ./page and write the annotated page to out.html
//	shield run --output out.html
//
//	# Score a single text
//	shield scan -k "Walter White" "Walter White dies in the finale"
//
//	# Annotate an HTML file once
//	shield page feed.html > feed.annotated.html
//
//	# Query the detection log
//	shield events query --since 24h
package main

import "os"

func main() {
	os.Exit(Execute())
}
