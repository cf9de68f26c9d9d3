package daemon

import (
	"context"
	"testing"

	"github.com/palaver-ai/pa/internal/adapter"
)

type recordingAdapter struct {
	name string
	sent []*adapter.Message
}

func (r *recordingAdapter) Name() string                { return r.name }
func (r *recordingAdapter) Start(context.Context) error { return nil }
func (r *recordingAdapter) Stop(context.Context) error  { return nil }
func (r *recordingAdapter) SendResponse(_ context.Context, msg *adapter.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestHeartbeatDeliveryForwardsToTarget(t *testing.T) {
	router := adapter.NewRouter()
	tg := &recordingAdapter{name: "telegram"}
	if err := router.Register(tg); err != nil {
		t.Fatalf("register: %v", err)
	}

	hd := newHeartbeatDelivery(router, "telegram:123456")
	msg := &adapter.Message{Source: "heartbeat", SourceID: "main", Text: "water the plants"}
	if err := hd.SendResponse(context.Background(), msg); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	if len(tg.sent) != 1 {
		t.Fatalf("telegram got %d messages, want 1", len(tg.sent))
	}
	if tg.sent[0].SourceID != "123456" || tg.sent[0].Text != "water the plants" {
		t.Errorf("forwarded message = %+v", tg.sent[0])
	}
}

func TestHeartbeatDeliveryWithoutTargetDrops(t *testing.T) {
	router := adapter.NewRouter()
	tg := &recordingAdapter{name: "telegram"}
	_ = router.Register(tg)

	hd := newHeartbeatDelivery(router, "")
	if err := hd.SendResponse(context.Background(), &adapter.Message{Text: "hi"}); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}
	if len(tg.sent) != 0 {
		t.Errorf("dropped reply was delivered: %+v", tg.sent)
	}
}
