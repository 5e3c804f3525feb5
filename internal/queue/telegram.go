package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramClient posts messages to one chat through the Bot API.
type TelegramClient struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
}

// NewTelegramClient returns a client, or nil when token or chatID is
// empty so callers can treat Telegram as optional.
func NewTelegramClient(token, chatID, baseURL string) *TelegramClient {
	if token == "" || chatID == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	return &TelegramClient{
		token:   token,
		chatID:  chatID,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text formatted as Markdown.
func (t *TelegramClient) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram: %s (status %d)", out.Description, resp.StatusCode)
	}
	return nil
}
