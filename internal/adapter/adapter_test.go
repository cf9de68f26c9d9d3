package adapter

import (
	"context"
	"strings"
	"testing"
)

type fakeAdapter struct {
	name string
	sent []*Message
}

func (f *fakeAdapter) Name() string                    { return f.name }
func (f *fakeAdapter) Start(context.Context) error     { return nil }
func (f *fakeAdapter) Stop(context.Context) error      { return nil }
func (f *fakeAdapter) SendResponse(_ context.Context, msg *Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func TestRouterDispatchesBySource(t *testing.T) {
	router := NewRouter()
	tg := &fakeAdapter{name: "telegram"}
	sl := &fakeAdapter{name: "slack"}
	if err := router.Register(tg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := router.Register(sl); err != nil {
		t.Fatalf("register: %v", err)
	}

	msg := &Message{Source: "slack", SourceID: "C01", Text: "hi"}
	if err := router.SendResponse(context.Background(), msg); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	if len(sl.sent) != 1 || len(tg.sent) != 0 {
		t.Errorf("slack got %d, telegram got %d", len(sl.sent), len(tg.sent))
	}
}

func TestRouterUnknownSourceIsNoop(t *testing.T) {
	router := NewRouter()
	msg := &Message{Source: "carrier-pigeon", SourceID: "x", Text: "coo"}
	if err := router.SendResponse(context.Background(), msg); err != nil {
		t.Errorf("unknown source returned error: %v", err)
	}
}

func TestRouterRejectsBadRegistrations(t *testing.T) {
	router := NewRouter()
	if err := router.Register(nil); err == nil {
		t.Errorf("nil adapter accepted")
	}
	if err := router.Register(&fakeAdapter{name: ""}); err == nil {
		t.Errorf("unnamed adapter accepted")
	}
}

func TestMessageThreadID(t *testing.T) {
	withMeta := &Message{
		SourceID: "C01--171.5",
		Metadata: map[string]string{MetaThreadID: "171.5"},
	}
	if got := withMeta.ThreadID(); got != "171.5" {
		t.Errorf("ThreadID from metadata = %q", got)
	}

	fromSourceID := &Message{SourceID: "C01--171.5"}
	if got := fromSourceID.ThreadID(); got != "171.5" {
		t.Errorf("ThreadID from sourceId = %q", got)
	}

	unthreaded := &Message{SourceID: "12345"}
	if got := unthreaded.ThreadID(); got != "" {
		t.Errorf("unthreaded ThreadID = %q", got)
	}
}

func TestChunkText(t *testing.T) {
	if got := ChunkText("short", 4096); len(got) != 1 || got[0] != "short" {
		t.Errorf("short text chunked: %v", got)
	}

	long := strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 10)
	got := ChunkText(long, 15)
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}
	// Split lands on the newline inside the window.
	if got[0] != strings.Repeat("a", 10)+"\n" || got[1] != strings.Repeat("b", 10) {
		t.Errorf("chunks = %q", got)
	}
	if joined := strings.Join(got, ""); joined != long {
		t.Errorf("chunks lose content")
	}

	// No newline: hard split at the limit, multibyte-safe.
	runes := strings.Repeat("é", 20)
	got = ChunkText(runes, 8)
	total := 0
	for _, c := range got {
		n := len([]rune(c))
		if n > 8 {
			t.Errorf("chunk has %d runes", n)
		}
		total += n
	}
	if total != 20 {
		t.Errorf("chunks carry %d runes, want 20", total)
	}
}
