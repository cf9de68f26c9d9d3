package session

import "testing"

func TestResolveKey(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		sourceID string
		threadID []string
		want     string
	}{
		{name: "source and id", source: "telegram", sourceID: "12345", want: "telegram--12345"},
		{name: "with thread", source: "slack", sourceID: "C01", threadID: []string{"171.5"}, want: "slack--C01--171.5"},
		{name: "empty thread dropped", source: "slack", sourceID: "C01", threadID: []string{""}, want: "slack--C01"},
		{name: "heartbeat", source: "heartbeat", sourceID: "telegram", want: "heartbeat--telegram"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveKey(tt.source, tt.sourceID, tt.threadID...); got != tt.want {
				t.Errorf("ResolveKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveKeyThreadedIsPrefixed(t *testing.T) {
	base := ResolveKey("slack", "C01")
	threaded := ResolveKey("slack", "C01", "99.1")
	if threaded != base+KeySeparator+"99.1" {
		t.Errorf("threaded key %q does not extend base %q", threaded, base)
	}
}
