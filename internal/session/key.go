// Package session derives conversation identifiers and persists
// transcripts as append-only JSONL files, one per session key.
package session

import "strings"

// KeySeparator joins the parts of a session key.
const KeySeparator = "--"

// ResolveKey derives the durable conversation id from the message origin.
// Empty parts are dropped, so ResolveKey(s, id) is always a prefix of
// ResolveKey(s, id, thread).
func ResolveKey(source, sourceID string, threadID ...string) string {
	parts := make([]string, 0, 3)
	for _, p := range append([]string{source, sourceID}, threadID...) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, KeySeparator)
}
