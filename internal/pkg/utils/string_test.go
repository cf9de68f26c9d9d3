package utils

import "testing"

func TestRandDigits(t *testing.T) {
	if got := RandDigits(0); got != "" {
		t.Errorf("RandDigits(0) = %q, want empty", got)
	}
	got := RandDigits(8)
	if len(got) != 8 {
		t.Fatalf("RandDigits(8) length = %d", len(got))
	}
	for _, c := range got {
		if c < '0' || c > '9' {
			t.Errorf("RandDigits produced non-digit %q", c)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("short input changed: %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate = %q, want hello...", got)
	}
}
