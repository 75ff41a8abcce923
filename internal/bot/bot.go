// Package bot is the Telegram gateway: it routes inbound updates to the
// dialog state machine or the goal ledger and renders replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tg "github.com/go-telegram/bot"

	"github.com/ybhrdwj/mittens-bot/internal/dialog"
	"github.com/ybhrdwj/mittens-bot/internal/metrics"
	"github.com/ybhrdwj/mittens-bot/internal/service"
)

type Bot struct {
	api       *tg.Bot
	ledger    *service.GoalService
	dialogs   *dialog.Manager
	collector *metrics.Collector
	webAppURL string
}

func New(
	token string,
	webAppURL string,
	ledger *service.GoalService,
	dialogs *dialog.Manager,
	collector *metrics.Collector,
) (*Bot, error) {
	b := &Bot{
		ledger:    ledger,
		dialogs:   dialogs,
		collector: collector,
		webAppURL: webAppURL,
	}

	api, err := tg.New(token, tg.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	api.RegisterHandler(tg.HandlerTypeMessageText, "/start", tg.MatchTypeExact, b.handleStart)
	api.RegisterHandler(tg.HandlerTypeMessageText, "/set", tg.MatchTypeExact, b.handleSet)
	api.RegisterHandler(tg.HandlerTypeCallbackQueryData, callbackSetGoals, tg.MatchTypeExact, b.handleSetGoalsCallback)

	b.api = api
	return b, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	slog.Info("bot polling started")
	b.api.Start(ctx)
	slog.Info("bot polling stopped")
}
