// Package slack is the Slack transport adapter. It connects over Socket
// Mode so no inbound firewall hole is needed, and encodes thread
// replies into the session identity so threaded conversations get their
// own transcripts.
package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/palaver-ai/pa/internal/adapter"
	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/pkg/logs"
)

const (
	// Name is the source name carried on every message from this adapter.
	Name = "slack"

	// maxMessageRunes is Slack's practical message size cap.
	maxMessageRunes = 4000
)

var _ adapter.Adapter = (*Slack)(nil)

type Slack struct {
	cfg     config.SlackConfig
	api     *slack.Client
	socket  *socketmode.Client
	handler adapter.Handler

	// botUserID filters out the bot's own messages echoed back by the
	// events API.
	botUserID string

	runCtx    context.Context
	runCancel context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
}

func New(cfg config.SlackConfig, handler adapter.Handler) (*Slack, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack botToken is required")
	}
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("slack appToken is required for socket mode")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, fmt.Errorf("slack appToken must be an app-level token (xapp-...)")
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &Slack{
		cfg:     cfg,
		api:     api,
		socket:  socketmode.New(api),
		handler: handler,
		done:    make(chan struct{}),
	}, nil
}

func (s *Slack) Name() string { return Name }

func (s *Slack) Start(ctx context.Context) error {
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	auth, err := s.api.AuthTestContext(s.runCtx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	s.botUserID = auth.UserID
	logs.CtxInfo(ctx, "[slack] connected as %s (user %s)", auth.User, auth.UserID)

	go s.eventLoop()

	if err := s.socket.RunContext(s.runCtx); err != nil && s.runCtx.Err() == nil {
		return fmt.Errorf("slack socket mode: %w", err)
	}
	return nil
}

func (s *Slack) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if s.runCancel != nil {
			s.runCancel()
		}
	})
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return nil
}

func (s *Slack) eventLoop() {
	defer close(s.done)

	for {
		select {
		case <-s.runCtx.Done():
			return
		case evt, ok := <-s.socket.Events:
			if !ok {
				return
			}
			s.handleSocketEvent(evt)
		}
	}
}

func (s *Slack) handleSocketEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logs.Debug("[slack] connecting to socket mode")
	case socketmode.EventTypeConnected:
		logs.Info("[slack] socket mode connected")
	case socketmode.EventTypeConnectionError:
		logs.Warn("[slack] socket mode connection error, retrying")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		// Ack before processing so Slack never redelivers a slow turn.
		if evt.Request != nil {
			s.socket.Ack(*evt.Request)
		}
		s.handleEventsAPI(apiEvent)
	}
}

func (s *Slack) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Skip edits, joins, and other non-plain subtypes.
		if ev.SubType != "" {
			return
		}
		s.dispatch(ev.Channel, ev.User, ev.BotID, ev.Text, ev.ThreadTimeStamp)
	case *slackevents.AppMentionEvent:
		s.dispatch(ev.Channel, ev.User, ev.BotID, stripMention(ev.Text, s.botUserID), ev.ThreadTimeStamp)
	}
}

// dispatch normalizes an inbound Slack message and hands it to the
// gateway. Threaded messages carry channel--threadTs as the source id
// so each thread is a distinct session.
func (s *Slack) dispatch(channel, user, botID, text, threadTS string) {
	if text == "" || botID != "" || user == "" || user == s.botUserID {
		return
	}
	if s.handler == nil {
		return
	}

	sourceID := channel
	metadata := map[string]string{"userId": user, "channel": channel}
	if threadTS != "" {
		sourceID = channel + "--" + threadTS
		metadata[adapter.MetaThreadID] = threadTS
	}

	msg := &adapter.Message{
		Source:   Name,
		SourceID: sourceID,
		Text:     text,
		Metadata: metadata,
	}
	if err := s.handler(s.runCtx, msg); err != nil {
		logs.CtxError(s.runCtx, "[slack] enqueue message: %v", err)
	}
}

// SendResponse posts the reply to the originating channel, back into
// the thread when the source id carries one, chunked to the transport
// limit.
func (s *Slack) SendResponse(ctx context.Context, msg *adapter.Message) error {
	channel, threadTS := splitSourceID(msg.SourceID)
	if channel == "" {
		return fmt.Errorf("invalid slack source id %q", msg.SourceID)
	}

	for _, chunk := range adapter.ChunkText(msg.Text, maxMessageRunes) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if threadTS != "" {
			opts = append(opts, slack.MsgOptionTS(threadTS))
		}
		if _, _, err := s.api.PostMessageContext(ctx, channel, opts...); err != nil {
			logs.CtxError(ctx, "[slack] post to %s: %v", channel, err)
			return fmt.Errorf("send slack message: %w", err)
		}
	}
	return nil
}

// splitSourceID undoes the channel--threadTs encoding. A bare channel
// id comes back with an empty thread.
func splitSourceID(sourceID string) (channel, threadTS string) {
	if before, after, found := strings.Cut(sourceID, "--"); found {
		return before, after
	}
	return sourceID, ""
}

// stripMention removes the leading <@BOTID> token from an app mention
// so the agent sees only the request text.
func stripMention(text, botUserID string) string {
	if botUserID == "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "<@"+botUserID+">", ""))
}
