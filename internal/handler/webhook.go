package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes    = 1 << 20
	updateTimeout     = 25 * time.Second
)

// Webhook receives Telegram updates over HTTPS and feeds them to the
// dispatcher. Telegram retries failed deliveries, so we always answer
// 200 once the payload parses; processing errors are logged, not
// surfaced.
type Webhook struct {
	dispatcher *Dispatcher
	secret     string
}

func NewWebhook(dispatcher *Dispatcher, secret string) *Webhook {
	return &Webhook{dispatcher: dispatcher, secret: secret}
}

func (w *Webhook) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", w.handleUpdate)
	return r
}

func (w *Webhook) handleUpdate(rw http.ResponseWriter, r *http.Request) {
	if w.secret != "" && r.Header.Get(secretTokenHeader) != w.secret {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	var update tgbotapi.Update
	dec := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxUpdateBytes))
	if err := dec.Decode(&update); err != nil {
		log.Warn().Err(err).Msg("malformed webhook payload")
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	w.dispatcher.HandleUpdate(ctx, update)

	rw.WriteHeader(http.StatusOK)
}
