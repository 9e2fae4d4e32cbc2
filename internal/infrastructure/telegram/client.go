package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-notify-relay/internal/ports"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.telegram.org"

// Cause classifies why a send attempt failed. The distinction is for
// diagnostics only; every cause exhausts to the same TransportError.
type Cause string

const (
	// CauseRemoteRejected means the platform answered with an error body.
	CauseRemoteRejected Cause = "remote-rejected"
	// CauseUnreachable means no response came back at all.
	CauseUnreachable Cause = "unreachable"
	// CauseLocal means the request could not be built or encoded.
	CauseLocal Cause = "local"
)

// TransportError is returned once the retry budget for one recipient is
// exhausted.
type TransportError struct {
	ChatID   string
	Attempts int
	Cause    Cause
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to chat %s failed after %d attempts (%s): %v", e.ChatID, e.Attempts, e.Cause, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetryConfig bounds the per-recipient retry loop. Backoff grows
// linearly: attempt number times BackoffBase. Sleep is injectable so
// tests run without wall-clock delay.
type RetryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	Sleep       func(time.Duration)
}

// DefaultRetryConfig returns the production retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		Sleep:       time.Sleep,
	}
}

// Client sends messages through the Telegram bot send API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     zerolog.Logger
}

// NewClient creates a Telegram client with the default retry policy and
// a bounded per-attempt HTTP timeout.
func NewClient(token string, logger zerolog.Logger) *Client {
	return NewClientWithOptions(token, defaultBaseURL, &http.Client{Timeout: 5 * time.Second}, DefaultRetryConfig(), logger)
}

// NewClientWithOptions creates a client with explicit base URL, HTTP
// client and retry policy.
func NewClientWithOptions(token, baseURL string, httpClient *http.Client, retry RetryConfig, logger zerolog.Logger) *Client {
	if retry.Sleep == nil {
		retry.Sleep = time.Sleep
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
	}
}

var _ ports.Messenger = (*Client)(nil)

// Send delivers plain text to one chat.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	return c.send(ctx, chatID, text, "")
}

// SendFormatted delivers text with Markdown parse mode, used for the
// rendered order notifications.
func (c *Client) SendFormatted(ctx context.Context, chatID, text string) error {
	return c.send(ctx, chatID, text, "Markdown")
}

type sendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) send(ctx context.Context, chatID, text, parseMode string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	var lastErr error
	var lastCause Cause

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		lastCause, lastErr = c.attempt(ctx, url, chatID, text, parseMode)
		if lastErr == nil {
			c.logger.Debug().Str("chatId", chatID).Int("attempt", attempt).Msg("Message sent")
			return nil
		}

		c.logger.Warn().
			Err(lastErr).
			Str("chatId", chatID).
			Str("cause", string(lastCause)).
			Int("attempt", attempt).
			Int("maxAttempts", c.retry.MaxAttempts).
			Msg("Message send attempt failed")

		if attempt < c.retry.MaxAttempts {
			c.retry.Sleep(time.Duration(attempt) * c.retry.BackoffBase)
		}
	}

	return &TransportError{
		ChatID:   chatID,
		Attempts: c.retry.MaxAttempts,
		Cause:    lastCause,
		Err:      lastErr,
	}
}

func (c *Client) attempt(ctx context.Context, url, chatID, text, parseMode string) (Cause, error) {
	body, err := json.Marshal(sendRequest{ChatID: chatID, Text: text, ParseMode: parseMode})
	if err != nil {
		return CauseLocal, fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CauseLocal, fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CauseUnreachable, fmt.Errorf("no response from send API: %w", err)
	}
	defer resp.Body.Close()

	var parsed sendResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK || !parsed.OK {
		desc := parsed.Description
		if desc == "" {
			desc = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return CauseRemoteRejected, fmt.Errorf("send API error: %s", desc)
	}

	return "", nil
}
