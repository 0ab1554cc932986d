// Package notify delivers run summaries to an operator chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"options-observer/src/helpers"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// -----------------------------------------------------------------------------

// TelegramNotifier posts plain-text messages to one chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
	retry  *helpers.RetryPolicy
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewTelegramNotifier connects to the Bot API with token.
func NewTelegramNotifier(cfg models.MTelegramConfig, log *logger.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, helpers.NewConfigurationError("failed to create Telegram bot", err)
	}
	return newTelegramNotifier(bot, cfg, log), nil
}

func newTelegramNotifier(bot sender, cfg models.MTelegramConfig, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		retry:  helpers.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelayBase, log),
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	return n.retry.Do(ctx, "telegram send", func(context.Context) error {
		_, err := n.bot.Send(msg)
		return err
	})
}

// -----------------------------------------------------------------------------

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }

// -----------------------------------------------------------------------------

// New returns a Telegram notifier when enabled in cfg, otherwise a NopNotifier.
// A bot that cannot be created is logged and replaced by a NopNotifier so a
// batch run never fails on notifications.
func New(cfg models.MTelegramConfig, log *logger.Logger) interfaces.INotifier {
	if !cfg.Enabled {
		return NopNotifier{}
	}
	n, err := NewTelegramNotifier(cfg, log)
	if err != nil {
		log.Warning("Telegram notifications disabled: %v", err)
		return NopNotifier{}
	}
	return n
}

// -----------------------------------------------------------------------------

// FormatFetchSummary renders a fetcher run for the operator chat.
func FormatFetchSummary(s models.MRunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Options fetch %s (run %s)\n", s.AsOfDate, shortID(s.RunID))
	fmt.Fprintf(&b, "Tickers: %d ok, %d skipped\n", s.TickersOK, s.TickersSkipped)
	fmt.Fprintf(&b, "Expiries: %d ok, %d skipped\n", s.ExpiriesOK, s.ExpiriesSkipped)
	if s.OutputPath != "" {
		fmt.Fprintf(&b, "Rows: %d saved to %s", s.Rows, s.OutputPath)
	} else {
		b.WriteString("No chains retrieved, nothing saved")
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// FormatAggregateSummary renders an aggregator run for the operator chat.
func FormatAggregateSummary(s models.MAggregateSummary) string {
	return fmt.Sprintf(
		"Options features rebuilt (run %s)\nSnapshots: %d, rows: %d\nFeature rows: %d for %d tickers\nSaved to %s",
		shortID(s.RunID), s.Snapshots, s.InputRows, s.FeatureRows, s.Tickers, s.Location,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
