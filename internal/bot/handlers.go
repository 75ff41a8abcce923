package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ybhrdwj/mittens-bot/internal/dialog"
	"github.com/ybhrdwj/mittens-bot/internal/repository"
	"github.com/ybhrdwj/mittens-bot/internal/service"
)

const callbackSetGoals = "set_goals"

const (
	msgSetPrompt = "Please enter your goals in the format: {Frequency} {GoalName}\n" +
		"For example: 2x Gym\n" +
		"You can set up to 4 goals. Enter 'done' when finished."
	msgBadFormat    = "Invalid format. Please use the format: {Frequency} {GoalName}"
	msgLimitReached = "You've already set 4 goals. Enter 'done' to finish."
	msgNoGoalsYet   = "You haven't set any goals yet. Please set at least one goal."
	msgGoalsSet     = "Your goals have been set successfully!"
	msgPeriodClosed = "Sorry, it's past 4 AM. You can't log goals for yesterday anymore."
	msgGoalGone     = "That goal doesn't exist anymore."
	msgFailed       = "Something went wrong. Please try again."
)

// webAppPayload is the structured action the mini app sends back through
// Telegram's web_app_data mechanism.
type webAppPayload struct {
	Action string `json:"action"`
	GoalID string `json:"goal_id"`
}

func (b *Bot) handleStart(ctx context.Context, _ *tg.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	b.collector.RecordUpdate("start")

	err := b.ledger.EnsureUser(ctx, msg.From.ID, msg.From.Username)
	if err != nil {
		slog.Error("failed to ensure user", "error", err, "user_id", msg.From.ID)
		b.send(ctx, msg.Chat.ID, msgFailed, nil)
		return
	}

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "Open Mittens App", WebApp: &models.WebAppInfo{URL: b.webAppURL}}},
			{{Text: "Set Goals", CallbackData: callbackSetGoals}},
		},
	}
	welcome := fmt.Sprintf("Welcome to Mittens Bot, %s! Use the buttons below to manage your goals.", msg.From.FirstName)
	b.send(ctx, msg.Chat.ID, welcome, keyboard)
}

func (b *Bot) handleSet(ctx context.Context, _ *tg.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	b.collector.RecordUpdate("set")

	b.dialogs.Start(msg.From.ID)
	b.send(ctx, msg.Chat.ID, msgSetPrompt, nil)
}

func (b *Bot) handleSetGoalsCallback(ctx context.Context, api *tg.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	b.collector.RecordUpdate("set_goals_callback")

	_, err := api.AnswerCallbackQuery(ctx, &tg.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})
	if err != nil {
		slog.Error("failed to answer callback query", "error", err)
	}

	b.dialogs.Start(cq.From.ID)
	// Private chat: the chat id equals the user id.
	b.send(ctx, cq.From.ID, msgSetPrompt, nil)
}

// handleUpdate catches everything the registered handlers do not:
// mini-app payloads and plain text typed during a declaration dialog.
func (b *Bot) handleUpdate(ctx context.Context, _ *tg.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch {
	case msg.WebAppData != nil:
		b.handleWebAppData(ctx, msg)
	case msg.Text != "" && b.dialogs.Active(msg.From.ID):
		b.handleDialogInput(ctx, msg)
	}
}

func (b *Bot) handleDialogInput(ctx context.Context, msg *models.Message) {
	b.collector.RecordUpdate("dialog_input")

	result, err := b.dialogs.Submit(ctx, msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, dialog.ErrNoSession) {
			return
		}
		slog.Error("failed to commit goals", "error", err, "user_id", msg.From.ID)
		b.send(ctx, msg.Chat.ID, msgFailed, nil)
		return
	}

	b.send(ctx, msg.Chat.ID, renderDialogResult(result), nil)
}

func (b *Bot) handleWebAppData(ctx context.Context, msg *models.Message) {
	b.collector.RecordUpdate("web_app_data")

	var payload webAppPayload
	err := json.Unmarshal([]byte(msg.WebAppData.Data), &payload)
	if err != nil {
		slog.Warn("malformed web app payload", "error", err, "user_id", msg.From.ID)
		return
	}
	if payload.Action != "log_goal" {
		return
	}

	progress, err := b.ledger.LogProgress(ctx, payload.GoalID, time.Now())
	switch {
	case errors.Is(err, service.ErrPeriodClosed):
		b.collector.RecordProgressRejected("period_closed")
		b.send(ctx, msg.Chat.ID, msgPeriodClosed, nil)
		return
	case errors.Is(err, repository.ErrGoalNotFound):
		b.collector.RecordProgressRejected("not_found")
		b.send(ctx, msg.Chat.ID, msgGoalGone, nil)
		return
	case err != nil:
		slog.Error("failed to log progress", "error", err, "goal_id", payload.GoalID)
		b.send(ctx, msg.Chat.ID, msgFailed, nil)
		return
	}

	b.collector.RecordProgressLogged()
	reply := fmt.Sprintf("Progress logged for %s!\nYou've completed this goal %d/%d times today.",
		progress.Name, progress.FrequencyDone, progress.FrequencyAimed)
	b.send(ctx, msg.Chat.ID, reply, nil)
}

// renderDialogResult turns a dialog outcome into the reply the user sees.
func renderDialogResult(result dialog.Result) string {
	switch result.Outcome {
	case dialog.OutcomeAdded:
		return fmt.Sprintf("Goal added: %dx %s\nYou have set %d goals. Enter another goal or 'done' to finish.",
			result.Declaration.Frequency, result.Declaration.Name, result.Pending)
	case dialog.OutcomeBadFormat:
		return msgBadFormat
	case dialog.OutcomeLimitReached:
		return msgLimitReached
	case dialog.OutcomeNothingToCommit:
		return msgNoGoalsYet
	case dialog.OutcomeCommitted:
		return msgGoalsSet
	default:
		return msgFailed
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	params := &tg.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := b.api.SendMessage(ctx, params)
	if err != nil {
		slog.Error("failed to send message", "error", err, "chat_id", chatID)
	}
}
