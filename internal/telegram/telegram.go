// Package telegram sends Bot API replies. It is only reachable from the CLI.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// ErrNoToken is returned when no bot token is configured.
var ErrNoToken = errors.New("telegram bot token not set")

// Client talks to the Telegram Bot API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Bot API client. An empty baseURL uses DefaultAPIURL.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ReplyToMessageID      *int   `json:"reply_to_message_id"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification"`
}

// Response is a decoded Bot API response body.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// MessageID returns result.message_id, or 0 if absent.
func (r *Response) MessageID() int {
	var m struct {
		MessageID int `json:"message_id"`
	}
	if len(r.Result) == 0 || json.Unmarshal(r.Result, &m) != nil {
		return 0
	}
	return m.MessageID
}

// ReplyFunc sends text to a fixed chat.
type ReplyFunc func(ctx context.Context, text string) (*Response, error)

// NewReplier returns a function that sends messages to chatID as a reply to
// messageID. A messageID of 0 sends a plain message. Link previews and
// notifications are disabled.
func NewReplier(c *Client, chatID int64, messageID int) ReplyFunc {
	return func(ctx context.Context, text string) (*Response, error) {
		req := sendMessageRequest{
			ChatID:                chatID,
			Text:                  text,
			DisableWebPagePreview: true,
			DisableNotification:   true,
		}
		if messageID != 0 {
			req.ReplyToMessageID = &messageID
		}
		return c.sendMessage(ctx, req)
	}
}

func (c *Client) sendMessage(ctx context.Context, msg sendMessageRequest) (*Response, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing send response: %w", err)
	}
	c.logger.Debug("telegram message sent", zap.Int64("chat_id", msg.ChatID), zap.Int("message_id", out.MessageID()))
	return &out, nil
}
