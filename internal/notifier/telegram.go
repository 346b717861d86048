package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dota-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// TelegramNotifier posts messages through the Telegram Bot API. The
// destination is the chat id as a string.
type TelegramNotifier struct {
	token  string
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewTelegramNotifier(cfg *config.Config, logger zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token: cfg.TelegramToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (n *TelegramNotifier) Send(ctx context.Context, destination, text string) error {
	if text == "" {
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: destination, Text: text})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline, ok := ctx.Deadline()
	if ok {
		err = n.client.DoDeadline(req, resp, deadline)
	} else {
		err = n.client.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("telegram API error: %d", resp.StatusCode())
	}

	n.logger.Debug().Str("destination", destination).Int("length", len(text)).Msg("message sent")
	return nil
}
