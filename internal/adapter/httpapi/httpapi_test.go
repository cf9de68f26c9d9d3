package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/palaver-ai/pa/internal/adapter"
)

func TestSendResponseDeliversToPendingRequest(t *testing.T) {
	api := New(nil)

	pr := &pendingReply{ch: make(chan string, 1), created: time.Now()}
	api.pendingMu.Lock()
	api.pending["req-1"] = pr
	api.pendingMu.Unlock()

	err := api.SendResponse(context.Background(), &adapter.Message{
		Source:   Name,
		SourceID: "req-1",
		Text:     "done",
	})
	if err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	select {
	case got := <-pr.ch:
		if got != "done" {
			t.Errorf("reply = %q", got)
		}
	default:
		t.Fatal("no reply delivered")
	}

	api.pendingMu.Lock()
	_, still := api.pending["req-1"]
	api.pendingMu.Unlock()
	if still {
		t.Error("pending entry not removed after delivery")
	}
}

func TestSendResponseAfterTimeoutIsDropped(t *testing.T) {
	api := New(nil)
	err := api.SendResponse(context.Background(), &adapter.Message{
		Source:   Name,
		SourceID: "gone",
		Text:     "late reply",
	})
	if err != nil {
		t.Errorf("late reply returned error: %v", err)
	}
}
