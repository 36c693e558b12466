package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"

	"github.com/nerrad567/irrigation-relay/internal/chat"
	"github.com/nerrad567/irrigation-relay/internal/conversation"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// ErrInvalidOperator is returned by Send for an operator that is not a
// Telegram chat id.
var ErrInvalidOperator = errors.New("telegram: operator is not a chat id")

// botAPI is the subset of *tgbotapi.BotAPI the Bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler processes one operator input. *conversation.Machine satisfies it.
type Handler interface {
	Handle(ctx context.Context, in conversation.Input) ([]chat.Message, error)
}

// Logger defines the logging interface used by the Bot.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bot is a Telegram chat transport.
type Bot struct {
	api         botAPI
	breaker     *gobreaker.CircuitBreaker
	pollTimeout int
	logger      Logger
}

// New connects to the Bot API with cfg.Token and verifies the token.
func New(cfg config.TelegramConfig) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return newBot(api, cfg), nil
}

func newBot(api botAPI, cfg config.TelegramConfig) *Bot {
	return &Bot{
		api:         api,
		breaker:     newBreaker(cfg.Breaker),
		pollTimeout: cfg.PollTimeout,
		logger:      noopLogger{},
	}
}

func newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	failures := cfg.Failures
	if failures <= 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "telegram-send",
		Timeout: time.Duration(cfg.OpenFor) * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isRecipientError(err)
		},
	})
}

// isRecipientError reports whether the API rejected the message for reasons
// specific to one chat.
func isRecipientError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 || apiErr.Code == 403
}

// SetLogger sets the logger for the bot.
func (b *Bot) SetLogger(logger Logger) {
	b.logger = logger
}

// Send delivers msg to the operator's chat.
func (b *Bot) Send(_ context.Context, to registry.OperatorID, msg chat.Message) error {
	chatID, err := ChatID(to)
	if err != nil {
		return err
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	if len(msg.Buttons) > 0 {
		out.ReplyMarkup = keyboard(msg.Buttons)
	}

	_, err = b.breaker.Execute(func() (any, error) {
		return b.api.Send(out)
	})
	if err != nil {
		return fmt.Errorf("sending to chat %d: %w", chatID, err)
	}
	return nil
}

// Listen long-polls for updates and hands each one to h in arrival order.
// It returns when ctx is cancelled.
func (b *Bot) Listen(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram listener started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram listener stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, h, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, h Handler, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// Acknowledge so the client stops showing a spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.logger.Warn("answering callback query failed", "error", err)
		}
	}

	in, ok := toInput(update)
	if !ok {
		return
	}

	replies, err := h.Handle(ctx, in)
	if err != nil {
		b.logger.Error("handling operator input failed", "operator", in.Operator, "error", err)
		replies = []chat.Message{conversation.InternalError()}
	}

	for _, msg := range replies {
		if err := b.Send(ctx, in.Operator, msg); err != nil {
			b.logger.Error("reply failed", "operator", in.Operator, "error", err)
		}
	}
}

// toInput converts a text message or button press into conversation input.
func toInput(update tgbotapi.Update) (conversation.Input, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.Message == nil || cq.Message.Chat == nil {
			return conversation.Input{}, false
		}
		return conversation.Input{
			Operator: OperatorID(cq.Message.Chat.ID),
			Action:   cq.Data,
		}, true

	case update.Message != nil && update.Message.Chat != nil:
		return conversation.Input{
			Operator: OperatorID(update.Message.Chat.ID),
			Text:     update.Message.Text,
		}, true
	}
	return conversation.Input{}, false
}

func keyboard(rows [][]chat.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Action))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

// OperatorID returns the operator identifier for a Telegram chat.
func OperatorID(chatID int64) registry.OperatorID {
	return registry.OperatorID(strconv.FormatInt(chatID, 10))
}

// ChatID parses an operator identifier back into a Telegram chat id.
func ChatID(op registry.OperatorID) (int64, error) {
	id, err := strconv.ParseInt(string(op), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, string(op))
	}
	return id, nil
}
