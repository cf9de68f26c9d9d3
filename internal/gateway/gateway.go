// Package gateway serializes all inbound traffic into agent turns. One
// bounded FIFO, one consumer: whatever arrives from telegram, slack,
// HTTP, cron, or the heartbeat is processed strictly in arrival order,
// one turn in flight at a time.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/palaver-ai/pa/internal/adapter"
	"github.com/palaver-ai/pa/internal/agent"
	"github.com/palaver-ai/pa/internal/heartbeat"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/pkg/prometheus"
	"github.com/palaver-ai/pa/internal/pkg/utils"
	"github.com/palaver-ai/pa/internal/session"
	"github.com/palaver-ai/pa/internal/workspace"
)

// DefaultMaxQueueSize bounds the inbound queue when config leaves it
// unset.
const DefaultMaxQueueSize = 20

// Responder routes a finished turn's reply back to its source.
// Satisfied by adapter.Router.
type Responder interface {
	SendResponse(ctx context.Context, msg *adapter.Message) error
}

type Gateway struct {
	queue     chan *adapter.Message
	turn      agent.Turn
	opts      agent.Options
	store     *session.Store
	responder Responder

	// audit is optional; nil disables the daily log.
	audit *workspace.AuditLog

	stop     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
}

// New builds a gateway with a queue of maxQueueSize messages.
func New(maxQueueSize int, turn agent.Turn, opts agent.Options, store *session.Store, responder Responder, audit *workspace.AuditLog) *Gateway {
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	}
	return &Gateway{
		queue:     make(chan *adapter.Message, maxQueueSize),
		turn:      turn,
		opts:      opts,
		store:     store,
		responder: responder,
		audit:     audit,
		stop:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
}

// Enqueue admits a message to the queue. It never blocks and never
// fails the caller: when the queue is full the newest message is
// dropped with a warning, since stalling an adapter poll loop is worse
// than losing one message.
func (g *Gateway) Enqueue(ctx context.Context, msg *adapter.Message) error {
	if msg == nil || msg.Text == "" {
		return nil
	}

	select {
	case g.queue <- msg:
		prometheus.GatewayQueueDepth.Set(float64(len(g.queue)))
	default:
		prometheus.GatewayDroppedTotal.Inc()
		logs.CtxWarn(ctx, "[gateway] queue full (%d), dropping message from %s#%s", cap(g.queue), msg.Source, msg.SourceID)
	}
	return nil
}

// QueueDepth reports the number of waiting messages.
func (g *Gateway) QueueDepth() int {
	return len(g.queue)
}

// ProcessLoop consumes the queue until Stop or ctx cancellation. It is
// the only consumer, so global FIFO order and the one-turn-in-flight
// invariant both follow from the loop shape.
func (g *Gateway) ProcessLoop(ctx context.Context) {
	defer close(g.loopDone)
	logs.CtxInfo(ctx, "[gateway] process loop started (queue capacity %d)", cap(g.queue))

	for {
		select {
		case <-g.stop:
			return
		case <-ctx.Done():
			return
		case msg := <-g.queue:
			prometheus.GatewayQueueDepth.Set(float64(len(g.queue)))
			g.processOne(ctx, msg)
		}
	}
}

// Stop ends the loop after the in-flight turn completes, bounded by ctx.
func (g *Gateway) Stop(ctx context.Context) error {
	g.stopOnce.Do(func() { close(g.stop) })

	select {
	case <-g.loopDone:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway stop: %w", ctx.Err())
	}
}

func (g *Gateway) processOne(ctx context.Context, msg *adapter.Message) {
	key := session.ResolveKey(msg.Source, msg.SourceID, msg.ThreadID())
	ctx = logs.SetLogID(ctx, logs.NewLogID())
	logs.CtxDebug(ctx, "[gateway] turn start: %s %q", key, utils.Truncate80(msg.Text))

	started := time.Now()
	messages, err := g.turn(ctx, msg.Text, key, g.opts)
	elapsed := time.Since(started)

	if g.audit != nil {
		g.audit.Record(workspace.AuditEntry{
			Source:     msg.Source,
			SessionKey: key,
			OK:         err == nil,
			DurationMs: elapsed.Milliseconds(),
		})
	}

	if err != nil {
		prometheus.GatewayTurnsTotal.WithLabelValues(msg.Source, "error").Inc()
		logs.CtxError(ctx, "[gateway] turn for %s failed after %s: %v", key, elapsed.Round(time.Millisecond), err)
		if msg.Source != heartbeat.Source {
			g.respond(ctx, msg, fmt.Sprintf("Sorry, something went wrong processing that: %v", err))
		}
		return
	}
	prometheus.GatewayTurnsTotal.WithLabelValues(msg.Source, "ok").Inc()

	if g.store != nil && len(messages) > 0 {
		if err := g.store.AppendAll(g.store.Path(key), messages); err != nil {
			logs.CtxError(ctx, "[gateway] append transcript %s: %v", key, err)
		}
	}

	reply := lastAssistantContent(messages)
	if reply == "" {
		return
	}
	if msg.Source == heartbeat.Source && heartbeat.IsOK(reply) {
		logs.CtxDebug(ctx, "[gateway] heartbeat ok, suppressing reply")
		return
	}
	g.respond(ctx, msg, reply)
}

func (g *Gateway) respond(ctx context.Context, inbound *adapter.Message, text string) {
	if g.responder == nil {
		return
	}
	out := &adapter.Message{
		Source:   inbound.Source,
		SourceID: inbound.SourceID,
		Text:     text,
		Metadata: inbound.Metadata,
	}
	if err := g.responder.SendResponse(ctx, out); err != nil {
		logs.CtxError(ctx, "[gateway] send reply to %s#%s: %v", inbound.Source, inbound.SourceID, err)
	}
}

func lastAssistantContent(messages []session.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}
