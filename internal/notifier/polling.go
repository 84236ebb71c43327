package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

const pollBackoff = 5 * time.Second

// StartPolling long-polls for Telegram commands and replies with the
// handler's answer. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := int64(0)
	for {
		if ctx.Err() != nil {
			t.logger.Info("telegram polling stopped")
			return
		}
		next, err := t.poll(ctx, offset, handler)
		if err != nil {
			if ctx.Err() != nil {
				t.logger.Info("telegram polling stopped")
				return
			}
			t.logger.Warn("polling request failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollBackoff):
			}
			continue
		}
		offset = next
	}
}

// poll fetches one batch of updates and returns the next offset.
func (t *TelegramNotifier) poll(ctx context.Context, offset int64, handler CommandHandler) (int64, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.endpoint("getUpdates"), offset)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return offset, fmt.Errorf("create polling request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return offset, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return offset, fmt.Errorf("read polling response: %w", err)
	}
	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "ok").Bool() {
		return offset, fmt.Errorf("bad polling response: status %d", resp.StatusCode)
	}

	for _, update := range gjson.GetBytes(body, "result").Array() {
		offset = update.Get("update_id").Int() + 1
		text := strings.TrimSpace(update.Get("message.text").String())
		if text == "" {
			continue
		}
		t.logger.Info("received command", "command", text)
		if reply := handler(ctx, text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				t.logger.Error("send reply failed", "error", err)
			}
		}
	}
	return offset, nil
}
