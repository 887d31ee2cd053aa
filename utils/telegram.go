package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TelegramNotifier delivers ops alerts to a Telegram chat. With empty
// settings every Notify is a no-op, so callers never need a nil check.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{BotToken: botToken, ChatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if n == nil || n.BotToken == "" || n.ChatID == "" || strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	form := url.Values{}
	form.Set("chat_id", n.ChatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status=%d", resp.StatusCode)
	}
	return nil
}
