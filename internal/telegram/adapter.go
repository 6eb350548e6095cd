// Package telegram delivers toasts to a Telegram chat and answers a few
// read-only dashboard commands.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/types"
)

const maxTelegramMessage = 4096

// Dashboard is what the bot commands report on.
type Dashboard interface {
	AgentStatus() []agents.Stats
	MetricsSnapshot() types.MetricsSnapshot
}

// Adapter sends toasts to one chat and serves bot commands.
type Adapter struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	dashboard Dashboard
}

// New creates an adapter talking to the public Bot API.
func New(token string, chatID int64, dashboard Dashboard) (*Adapter, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, chatID, dashboard)
}

// NewWithEndpoint creates an adapter against a custom API endpoint, in the
// Bot API's "…/bot%s/%s" format.
func NewWithEndpoint(token, endpoint string, chatID int64, dashboard Dashboard) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{bot: bot, chatID: chatID, dashboard: dashboard}, nil
}

// Notify sends a toast to the configured chat. It satisfies notify.Sink.
func (a *Adapter) Notify(ctx context.Context, toast types.Toast) error {
	if a.chatID == 0 {
		return fmt.Errorf("telegram chat id not configured")
	}
	return a.send(a.chatID, formatToast(toast))
}

// Start long-polls for bot commands until ctx is done.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			a.handleCommand(update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	var reply string

	switch msg.Command() {
	case "start":
		reply = fmt.Sprintf("agentdeck will post alerts here. Chat id: %d", chatID)
	case "status":
		reply = formatStatus(a.dashboard.AgentStatus())
	case "metrics":
		reply = formatMetrics(a.dashboard.MetricsSnapshot())
	default:
		reply = "Unknown command. Available: /start, /status, /metrics"
	}
	if err := a.send(chatID, reply); err != nil {
		slog.Error("telegram reply failed", "chat_id", chatID, "error", err)
	}
}

func (a *Adapter) send(chatID int64, text string) error {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

var toastIcons = map[types.ToastType]string{
	types.ToastInfo:    "ℹ️",
	types.ToastSuccess: "✅",
	types.ToastWarning: "⚠️",
	types.ToastError:   "❌",
}

func formatToast(t types.Toast) string {
	icon, ok := toastIcons[t.Type]
	if !ok {
		icon = toastIcons[types.ToastInfo]
	}
	return fmt.Sprintf("%s *%s*\n%s", icon, t.Title, t.Message)
}

func formatStatus(stats []agents.Stats) string {
	if len(stats) == 0 {
		return "No agents registered."
	}
	var b strings.Builder
	for _, s := range stats {
		state := "stopped"
		if s.Active {
			state = "active"
		}
		fmt.Fprintf(&b, "%s: %s, processed %d\n", s.Name, state, s.Processed)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMetrics(m types.MetricsSnapshot) string {
	return fmt.Sprintf("Leads: %d (conversion %.1f%%)\nActive tickets: %d\nInventory alerts: %d",
		m.TotalLeads, m.ConversionRate, m.ActiveTickets, m.InventoryAlerts)
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := min(maxTelegramMessage, len(text))
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
