package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string

	client *retryablehttp.Client
	logger *slog.Logger
}

// Option customizes a TelegramNotifier.
type Option func(*TelegramNotifier)

// WithAPIBase points the notifier at another Bot API server.
func WithAPIBase(base string) Option {
	return func(t *TelegramNotifier) { t.APIBase = base }
}

// WithRetry sets the retry budget and backoff bounds.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(t *TelegramNotifier) {
		t.client.RetryMax = max
		t.client.RetryWaitMin = waitMin
		t.client.RetryWaitMax = waitMax
	}
}

// WithLogger sets the notifier logger. It also receives retry attempts.
func WithLogger(l *slog.Logger) Option {
	return func(t *TelegramNotifier) {
		t.logger = l
		t.client.Logger = l
	}
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, opts ...Option) *TelegramNotifier {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = 40 * time.Second

	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client.HTTPClient.Transport = transport

	t := &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultAPIBase,
		client:   client,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	client.Logger = t.logger
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

// Send sends an HTML message to the configured chat. Transient failures are
// retried with backoff before an error is returned.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, err := jsoniter.Marshal(map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !gjson.GetBytes(respBody, "ok").Bool() {
		return fmt.Errorf("telegram API error: status %d, description: %s",
			resp.StatusCode, gjson.GetBytes(respBody, "description").String())
	}
	return nil
}
