package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.telegram.org"

type Bot struct {
	baseURL string
	client  *http.Client
}

func NewBot(token string) *Bot {
	return NewBotWithURL(defaultAPIURL, token)
}

// NewBotWithURL points the bot at another Bot API server.
func NewBotWithURL(apiURL, token string) *Bot {
	return &Bot{
		baseURL: strings.TrimRight(apiURL, "/") + "/bot" + token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	params := url.Values{}
	params.Add("chat_id", chatID)
	params.Add("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/sendMessage", strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: %s", resp.Status)
	}
	return nil
}
