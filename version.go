// Package pa carries build-level metadata shared by the binary and the
// self-updater.
package pa

// VERSION is the semantic version of this build. Overridden at release
// time via -ldflags "-X github.com/palaver-ai/pa.VERSION=...".
var VERSION = "0.3.0"
