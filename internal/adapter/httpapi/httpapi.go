// Package httpapi is the synchronous HTTP adapter: a caller POSTs a
// message and the handler blocks until the agent reply comes back
// through the gateway, or the wait times out. The terminal client and
// `pa msg` both speak this endpoint.
package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"github.com/palaver-ai/pa/internal/adapter"
	"github.com/palaver-ai/pa/internal/pkg/logs"
)

const (
	// Name is the source name carried on every message from this adapter.
	Name = "http"

	// MessagePath is the inbound message endpoint.
	MessagePath = "/api/v1/message"

	// replyTimeout is how long a request waits for its agent turn.
	replyTimeout = 5 * time.Minute
)

var _ adapter.Adapter = (*API)(nil)

// inboundRequest is the JSON body expected on the message endpoint.
type inboundRequest struct {
	Message  string            `json:"message"`
	UserID   string            `json:"userId,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// outboundResponse is the JSON body returned to the caller.
type outboundResponse struct {
	ID    string `json:"id"`
	Reply string `json:"reply"`
}

// pendingReply routes the agent response back to the waiting request.
type pendingReply struct {
	ch      chan string
	created time.Time
}

type API struct {
	handler adapter.Handler

	// pending maps request id to its reply channel. SendResponse looks
	// the id up by the message source id.
	pendingMu sync.Mutex
	pending   map[string]*pendingReply
}

func New(handler adapter.Handler) *API {
	return &API{
		handler: handler,
		pending: make(map[string]*pendingReply),
	}
}

func (a *API) Name() string { return Name }

// Start and Stop are no-ops: the adapter's routes are served by the
// daemon's shared HTTP server.
func (a *API) Start(_ context.Context) error { return nil }
func (a *API) Stop(_ context.Context) error  { return nil }

// Route is the handler the daemon mounts at POST MessagePath.
func (a *API) Route() app.HandlerFunc {
	return a.handleMessage
}

// SendResponse delivers the reply to the pending request identified by
// the message source id. A reply arriving after the request timed out
// is silently dropped.
func (a *API) SendResponse(_ context.Context, msg *adapter.Message) error {
	a.pendingMu.Lock()
	pr, ok := a.pending[msg.SourceID]
	if ok {
		delete(a.pending, msg.SourceID)
	}
	a.pendingMu.Unlock()

	if !ok {
		return nil
	}

	select {
	case pr.ch <- msg.Text:
	default:
	}
	return nil
}

func (a *API) handleMessage(ctx context.Context, c *app.RequestContext) {
	var req inboundRequest
	if err := sonic.Unmarshal(c.GetRequest().Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	// A unique request id doubles as the source id so the reply routes
	// back to exactly this request.
	requestID := uuid.New().String()

	metadata := req.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if req.UserID != "" {
		metadata["userId"] = req.UserID
	}

	msg := &adapter.Message{
		Source:   Name,
		SourceID: requestID,
		Text:     req.Message,
		Metadata: metadata,
	}

	pr := &pendingReply{ch: make(chan string, 1), created: time.Now()}
	a.pendingMu.Lock()
	a.pending[requestID] = pr
	a.pendingMu.Unlock()
	defer func() {
		a.pendingMu.Lock()
		delete(a.pending, requestID)
		a.pendingMu.Unlock()
	}()

	if a.handler == nil {
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "no handler registered"})
		return
	}
	if err := a.handler(ctx, msg); err != nil {
		logs.CtxError(ctx, "[http] enqueue message: %v", err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to process message"})
		return
	}

	select {
	case reply := <-pr.ch:
		c.JSON(consts.StatusOK, outboundResponse{ID: requestID, Reply: reply})
	case <-time.After(replyTimeout):
		c.JSON(consts.StatusGatewayTimeout, map[string]string{"error": "response timeout"})
	case <-ctx.Done():
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "server shutting down"})
	}
}
