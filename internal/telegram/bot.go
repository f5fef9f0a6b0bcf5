package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log zerolog.Logger
}

func NewBot(token, webhookURL string, deps HandlerDeps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log := deps.Log.With().Str("component", "telegram").Logger()
	log.Info().Str("webhook", webhookURL).Str("bot", api.Self.UserName).Msg("webhook set")

	return &Bot{api: api, h: NewHandlers(api, deps), log: log}, nil
}

// NewWebhookBot wraps existing handlers; used when the Bot API client is built elsewhere.
func NewWebhookBot(h *Handlers, log zerolog.Logger) *Bot {
	return &Bot{h: h, log: log.With().Str("component", "telegram").Logger()}
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if update.Message == nil || update.Message.Chat == nil {
		b.log.Debug().Int("update_id", update.UpdateID).Msg("non-message update received")
		w.WriteHeader(http.StatusOK)
		return
	}

	ev := b.log.Info().Int64("chat_id", update.Message.Chat.ID).Str("text", update.Message.Text)
	if update.Message.From != nil {
		ev = ev.Int64("from", update.Message.From.ID)
	}
	ev.Msg("webhook message")

	go b.h.HandleMessage(update.Message)
	w.WriteHeader(http.StatusOK)
}
