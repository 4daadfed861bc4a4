/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/rs/zerolog"
)

const defaultAPIBase = "https://api.telegram.org"

type Client struct {
	token   string
	apiBase string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{token: cfg.TelegramToken, apiBase: defaultAPIBase, http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

// WithAPIBase points the client at a different Bot API host.
func (c *Client) WithAPIBase(base string) *Client {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

// SendMessage sends plain text (no parse_mode) so metric values never
// trip the markdown parser.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.token == "" || chatID == 0 {
		return fmt.Errorf("telegram: missing token or chat id")
	}
	body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
	if err := c.post(ctx, "sendMessage", body); err != nil {
		return err
	}
	c.log.Debug().Int64("chat", chatID).Int("len", len(text)).Msg("telegram message sent")
	return nil
}

// SetWebhook registers the webhook URL and the secret Telegram echoes back
// in X-Telegram-Bot-Api-Secret-Token.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secretToken string) error {
	if c.token == "" || webhookURL == "" || secretToken == "" {
		return fmt.Errorf("telegram: missing token, url or secret")
	}
	return c.post(ctx, "setWebhook", map[string]any{
		"url":                  webhookURL,
		"secret_token":         secretToken,
		"drop_pending_updates": true,
		"allowed_updates":      []string{"message"},
	})
}

func (c *Client) post(ctx context.Context, method string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("telegram %s status=%d body=%s", method, resp.StatusCode, string(bodyBytes))
	}
	return nil
}
