// Package notify pushes due-reminder digests to a Telegram chat. The
// notifier is optional; without a token the server simply runs without it.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/service"
)

const (
	checkInterval = 30 * time.Second
	dueWindow     = time.Hour
)

// Notifier watches all rooms for reminders coming due and sends a digest
// per room to the configured chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	svc    *service.Service
	logger *logrus.Logger

	// notified remembers reminder ids already announced, so a reminder is
	// mentioned once even though it stays inside the window for an hour.
	notified map[string]struct{}
}

// New creates a Notifier from a bot token and a chat id string.
func New(token, chatID string, svc *service.Service, logger *logrus.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
	}
	logger.WithField("bot", bot.Self.UserName).Info("Telegram notifier authorized")
	return &Notifier{
		bot:      bot,
		chatID:   id,
		svc:      svc,
		logger:   logger,
		notified: make(map[string]struct{}),
	}, nil
}

// Run checks for reminders due within the next hour every 30 seconds. It
// blocks until the context is cancelled, so it should be launched in a
// separate goroutine.
func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	n.logger.Info("Due-reminder notifier started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Due-reminder notifier stopped")
			return
		case <-ticker.C:
			n.processDue(ctx)
		}
	}
}

// processDue walks every room and announces reminders entering the due
// window.
func (n *Notifier) processDue(ctx context.Context) {
	rooms, err := n.svc.ListRooms(ctx)
	if err != nil {
		n.logger.Errorf("Failed to list rooms for notification: %v", err)
		return
	}

	now := time.Now()
	for _, room := range rooms {
		reminders, err := n.svc.ListReminders(ctx, room.Code)
		if err != nil {
			n.logger.Errorf("Failed to list reminders for room %s: %v", room.Code, err)
			continue
		}
		due := n.collectDue(reminders, now)
		if len(due) == 0 {
			continue
		}
		n.send(room, due)
	}
}

// collectDue keeps the not-yet-announced reminders with a due date inside
// [now, now+window], plus anything already overdue but unfinished.
func (n *Notifier) collectDue(reminders []*models.Reminder, now time.Time) []*models.Reminder {
	var due []*models.Reminder
	for _, r := range reminders {
		if r.DueDate == nil || r.Progress >= 100 {
			continue
		}
		if r.DueDate.After(now.Add(dueWindow)) {
			continue
		}
		if _, seen := n.notified[r.ID]; seen {
			continue
		}
		n.notified[r.ID] = struct{}{}
		due = append(due, r)
	}
	return due
}

func (n *Notifier) send(room *models.Room, due []*models.Reminder) {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ *%s* (%s)\n", room.Name, room.Code)
	for _, r := range due {
		fmt.Fprintf(&b, "• %s — due %s\n", r.Title, r.DueDate.Format("Jan 2 15:04"))
	}

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Errorf("Failed to send notification: %v", err)
	}
}
