// Package notify reports cron runs to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/LifeLedger/internal/cron"
)

// maxDetails limits how many failing rules are listed in one message.
const maxDetails = 10

// Sender is the part of tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	sender Sender
	chatID int64
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewTelegramWithSender(api, chatID), nil
}

func NewTelegramWithSender(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// NotifyRun sends a summary of the run to the configured chat.
func (t *Telegram) NotifyRun(ctx context.Context, summary cron.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed := ParseMarkdown(FormatRun(summary))
	msg := tgbotapi.NewMessage(t.chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatRun renders a run summary as markdown.
func FormatRun(summary cron.Summary) string {
	var b strings.Builder
	if !summary.Success {
		b.WriteString("# Recurring run failed\n")
		if summary.Error != "" {
			fmt.Fprintf(&b, "%s\n", summary.Error)
		}
		return b.String()
	}

	b.WriteString("# Recurring run finished with errors\n")
	fmt.Fprintf(&b, "Processed **%d** of %d rules, **%d** failed in `%s`\n",
		summary.Processed, summary.Total, summary.Errors, summary.Duration)

	shown := 0
	for _, d := range summary.Details {
		if d.Status != cron.StatusError {
			continue
		}
		if shown == maxDetails {
			fmt.Fprintf(&b, "and %d more\n", summary.Errors-shown)
			break
		}
		fmt.Fprintf(&b, "Rule `%d`: %s\n", d.RecurringTransactionID, d.Error)
		shown++
	}
	return b.String()
}
