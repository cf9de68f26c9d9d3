// Package telegram is the Telegram transport adapter: long-polling
// inbound, entity-rendered outbound with plain-text fallback, and a
// typing indicator while a turn is in flight.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/palaver-ai/pa/internal/adapter"
	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/pkg/logs"
)

const (
	// Name is the source name carried on every message from this adapter.
	Name = "telegram"

	// maxMessageRunes is Telegram's message size cap.
	maxMessageRunes = 4096

	// typingInterval refreshes the typing indicator, which Telegram
	// expires after ~5 seconds.
	typingInterval = 3 * time.Second

	// typingCap bounds how long a chat shows typing if the reply never
	// arrives.
	typingCap = 5 * time.Minute
)

var _ adapter.Adapter = (*Telegram)(nil)

type Telegram struct {
	cfg     config.TelegramConfig
	bot     *bot.Bot
	botID   int64
	handler adapter.Handler

	// typing maps chat id to the stop func of its indicator loop.
	typingMu sync.Mutex
	typing   map[string]func()

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(cfg config.TelegramConfig, handler adapter.Handler) (*Telegram, error) {
	tg := &Telegram{
		cfg:     cfg,
		handler: handler,
		typing:  make(map[string]func()),
	}

	b, err := bot.New(cfg.BotToken, bot.WithDefaultHandler(tg.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	tg.bot = b
	return tg, nil
}

func (t *Telegram) Name() string { return Name }

func (t *Telegram) Start(ctx context.Context) error {
	t.runCtx, t.runCancel = context.WithCancel(ctx)

	me, err := t.bot.GetMe(t.runCtx)
	if err != nil {
		return fmt.Errorf("telegram GetMe: %w", err)
	}
	t.botID = me.ID
	logs.CtxInfo(ctx, "[telegram] polling as @%s (id=%d)", me.Username, me.ID)

	t.bot.Start(t.runCtx)
	return nil
}

func (t *Telegram) Stop(ctx context.Context) error {
	if t.runCancel != nil {
		t.runCancel()
	}
	t.stopAllTyping()
	if t.bot != nil {
		if _, err := t.bot.Close(ctx); err != nil {
			return fmt.Errorf("close telegram bot: %w", err)
		}
	}
	return nil
}

// handleUpdate normalizes an incoming update and hands it to the
// gateway. Bot echo and unauthorized senders are dropped here.
func (t *Telegram) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if msg.From == nil || msg.From.IsBot || msg.From.ID == t.botID {
		return
	}
	if !t.senderAllowed(msg.From) {
		logs.CtxWarn(ctx, "[telegram] dropping message from unauthorized user %d", msg.From.ID)
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	inbound := &adapter.Message{
		Source:   Name,
		SourceID: chatID,
		Text:     msg.Text,
		Metadata: map[string]string{
			"messageId": strconv.Itoa(msg.ID),
			"userId":    strconv.FormatInt(msg.From.ID, 10),
			"username":  msg.From.Username,
			"chatType":  string(msg.Chat.Type),
		},
	}

	if t.handler == nil {
		return
	}
	if err := t.handler(ctx, inbound); err != nil {
		logs.CtxError(ctx, "[telegram] enqueue message: %v", err)
		return
	}
	t.startTyping(chatID)
}

// senderAllowed applies the allowlist. An empty list allows everyone; a
// non-empty list with a missing sender id rejects — absence of identity
// is never treated as a match.
func (t *Telegram) senderAllowed(from *models.User) bool {
	if len(t.cfg.AllowedUserIDs) == 0 {
		return true
	}
	if from == nil || from.ID == 0 {
		return false
	}
	for _, id := range t.cfg.AllowedUserIDs {
		if id == from.ID {
			return true
		}
	}
	return false
}

// SendResponse delivers the reply to the originating chat, chunked to
// the transport limit. Entity rendering falls back to plain text when
// Telegram rejects the formatted request.
func (t *Telegram) SendResponse(ctx context.Context, msg *adapter.Message) error {
	t.stopTyping(msg.SourceID)

	chatID, err := strconv.ParseInt(msg.SourceID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", msg.SourceID, err)
	}

	for _, chunk := range adapter.ChunkText(msg.Text, maxMessageRunes) {
		if err := t.sendChunk(ctx, chatID, chunk); err != nil {
			logs.CtxError(ctx, "[telegram] send chunk to %d: %v", chatID, err)
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

func (t *Telegram) sendChunk(ctx context.Context, chatID int64, chunk string) error {
	text, entities := renderEntities(chunk)
	if text == "" {
		text = chunk
	}

	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:   chatID,
		Text:     text,
		Entities: entities,
	})
	if err != nil && len(entities) > 0 {
		logs.CtxWarn(ctx, "[telegram] entity send failed, falling back to plain text: %v", err)
		_, err = t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   chunk,
		})
	}
	return err
}

// startTyping keeps the typing indicator alive for a chat until its
// reply arrives or the cap expires.
func (t *Telegram) startTyping(chatID string) {
	t.typingMu.Lock()
	defer t.typingMu.Unlock()

	if _, running := t.typing[chatID]; running {
		return
	}

	done := make(chan struct{})
	t.typing[chatID] = func() { close(done) }

	go func() {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return
		}
		ctx := t.runCtx
		if ctx == nil {
			ctx = context.Background()
		}

		send := func() {
			_, _ = t.bot.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: id,
				Action: models.ChatActionTyping,
			})
		}
		send()

		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		deadline := time.After(typingCap)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-deadline:
				t.stopTyping(chatID)
				return
			case <-ticker.C:
				send()
			}
		}
	}()
}

func (t *Telegram) stopTyping(chatID string) {
	t.typingMu.Lock()
	defer t.typingMu.Unlock()
	if stop, ok := t.typing[chatID]; ok {
		delete(t.typing, chatID)
		stop()
	}
}

func (t *Telegram) stopAllTyping() {
	t.typingMu.Lock()
	defer t.typingMu.Unlock()
	for chatID, stop := range t.typing {
		delete(t.typing, chatID)
		stop()
	}
}
