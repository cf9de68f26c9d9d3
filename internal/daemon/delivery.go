package daemon

import (
	"context"
	"strings"

	"github.com/palaver-ai/pa/internal/adapter"
	"github.com/palaver-ai/pa/internal/heartbeat"
	"github.com/palaver-ai/pa/internal/pkg/logs"
)

var _ adapter.Adapter = (*heartbeatDelivery)(nil)

// heartbeatDelivery routes non-suppressed heartbeat replies to the
// configured target. deliverTo is "source:sourceId", e.g.
// "telegram:123456"; with no target the reply is logged and dropped.
type heartbeatDelivery struct {
	router    *adapter.Router
	deliverTo string
}

func newHeartbeatDelivery(router *adapter.Router, deliverTo string) *heartbeatDelivery {
	return &heartbeatDelivery{router: router, deliverTo: deliverTo}
}

func (h *heartbeatDelivery) Name() string                  { return heartbeat.Source }
func (h *heartbeatDelivery) Start(_ context.Context) error { return nil }
func (h *heartbeatDelivery) Stop(_ context.Context) error  { return nil }

func (h *heartbeatDelivery) SendResponse(ctx context.Context, msg *adapter.Message) error {
	source, sourceID, ok := strings.Cut(h.deliverTo, ":")
	if !ok || source == "" || sourceID == "" {
		logs.CtxInfo(ctx, "[heartbeat] no delivery target, dropping reply: %s", msg.Text)
		return nil
	}
	return h.router.SendResponse(ctx, &adapter.Message{
		Source:   source,
		SourceID: sourceID,
		Text:     msg.Text,
	})
}
