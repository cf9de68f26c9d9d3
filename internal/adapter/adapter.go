// Package adapter defines the transport contract: named inbound/outbound
// adapters that normalize platform events into messages and deliver
// replies, plus the router that dispatches a reply to the adapter it
// came from.
package adapter

import (
	"context"
	"strings"
)

// MetaThreadID carries thread membership in message metadata, mirroring
// the thread suffix an adapter encodes into SourceID.
const MetaThreadID = "threadId"

// Message is the normalized unit flowing between adapters and the
// gateway. SourceID is opaque to the gateway but must be stable for the
// message's lifetime so the reply resolves to the same conversation;
// threaded transports encode thread membership into it (channel--thread).
type Message struct {
	Source   string            `json:"source"`
	SourceID string            `json:"sourceId"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ThreadID returns the thread component, from metadata when mirrored
// there or by splitting SourceID on the first separator.
func (m *Message) ThreadID() string {
	if m.Metadata != nil {
		if t := m.Metadata[MetaThreadID]; t != "" {
			return t
		}
	}
	if _, thread, found := strings.Cut(m.SourceID, "--"); found {
		return thread
	}
	return ""
}

// Handler is the inbound callback an adapter invokes for every
// normalized message. Adapters receive it at construction time.
type Handler func(ctx context.Context, msg *Message) error

// Adapter is a named transport. Start blocks until the context is
// canceled or a fatal transport error occurs; SendResponse delivers an
// outbound message to the conversation identified by SourceID.
type Adapter interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SendResponse(ctx context.Context, msg *Message) error
}
