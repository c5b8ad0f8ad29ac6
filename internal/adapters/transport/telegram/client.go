// Package telegram delivers and receives chat messages over the Telegram
// Bot API using long polling.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

const (
	defaultBaseURL     = "https://api.telegram.org"
	defaultPollTimeout = 50 * time.Second
	maxResponseSize    = 1 << 20
)

type Options struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	// PollTimeout is the long-poll window passed to getUpdates.
	PollTimeout time.Duration
}

type Client struct {
	token       string
	baseURL     string
	httpClient  *http.Client
	pollTimeout time.Duration
}

var _ ports.Transport = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client timeout: long polls are bounded per request below.
		httpClient = &http.Client{}
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	return &Client{
		token:       token,
		baseURL:     baseURL,
		httpClient:  httpClient,
		pollTimeout: pollTimeout,
	}, nil
}

func (c *Client) Send(ctx context.Context, chatID domain.ChatID, text string) error {
	payload := map[string]string{
		"chat_id": string(chatID),
		"text":    text,
	}
	var discard json.RawMessage
	if err := c.call(ctx, "sendMessage", payload, &discard); err != nil {
		return fmt.Errorf("send message to chat %s: %w", chatID, err)
	}
	return nil
}

// Update is one inbound message, reduced to what the bot consumes.
type Update struct {
	ChatID domain.ChatID
	Text   string
}

// Handler processes one inbound update.
type Handler func(ctx context.Context, update Update)

// Poll long-polls getUpdates until the context is cancelled, invoking the
// handler for every text message. Transient API errors back off briefly
// instead of aborting the loop.
func (c *Client) Poll(ctx context.Context, handler Handler) error {
	var offset int64
	for {
		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-time.After(3 * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			handler(ctx, Update{
				ChatID: domain.ChatID(strconv.FormatInt(update.Message.Chat.ID, 10)),
				Text:   update.Message.Text,
			})
		}
	}
}

type rawUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]rawUpdate, error) {
	payload := map[string]any{
		"timeout":         int(c.pollTimeout / time.Second),
		"allowed_updates": []string{"message"},
	}
	if offset > 0 {
		payload["offset"] = offset
	}

	// Bound each poll to the long-poll window plus slack so a dead
	// connection cannot hang the loop.
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout+10*time.Second)
	defer cancel()

	var updates []rawUpdate
	if err := c.call(pollCtx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// call performs one Bot API method call and decodes the {ok, result,
// description} envelope into out.
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("perform %s request: %w", method, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !envelope.OK {
		description := envelope.Description
		if description == "" {
			description = fmt.Sprintf("status %d", response.StatusCode)
		}
		return fmt.Errorf("%s: %s", method, description)
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
