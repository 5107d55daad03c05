package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/notify"
)

const DefaultBaseURL = "https://discord.com/api/v10"

var userAgent = "DiscordBot (https://github.com/hamed0406/watchdog, 1)"

// Client is a minimal Discord REST client covering the calls the status
// notifier makes. It implements notify.Channel.
type Client struct {
	Token   string
	BaseURL string
	Client  *http.Client

	limiter *rate.Limiter
}

// New returns nil when token is empty. rps <= 0 disables client-side limiting.
func New(token, baseURL string, rps float64) *Client {
	if token == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		Token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// APIError is a non-2xx response. A 404 matches notify.ErrNotFound.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discord: http %d", e.Status)
	}
	return fmt.Sprintf("discord: http %d: %s (code %d)", e.Status, e.Message, e.Code)
}

func (e *APIError) Is(target error) bool {
	return target == notify.ErrNotFound && e.Status == http.StatusNotFound
}

type channelPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type messagePayload struct {
	ID string `json:"id"`
}

type createMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []notify.Embed `json:"embeds,omitempty"`
}

func (c *Client) GetChannel(ctx context.Context, channelID string) (notify.ChannelInfo, error) {
	var out channelPayload
	if err := c.do(ctx, http.MethodGet, "/channels/"+channelID, nil, &out); err != nil {
		return notify.ChannelInfo{}, err
	}
	return notify.ChannelInfo{ID: out.ID, Name: out.Name}, nil
}

func (c *Client) GetMessage(ctx context.Context, channelID string, id domain.MessageID) error {
	var out messagePayload
	return c.do(ctx, http.MethodGet, "/channels/"+channelID+"/messages/"+string(id), nil, &out)
}

func (c *Client) DeleteMessage(ctx context.Context, channelID string, id domain.MessageID) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID+"/messages/"+string(id), nil, nil)
}

func (c *Client) SendText(ctx context.Context, channelID, content string) (domain.MessageID, error) {
	return c.send(ctx, channelID, createMessage{Content: content})
}

func (c *Client) SendEmbed(ctx context.Context, channelID string, e notify.Embed) (domain.MessageID, error) {
	return c.send(ctx, channelID, createMessage{Embeds: []notify.Embed{e}})
}

func (c *Client) send(ctx context.Context, channelID string, msg createMessage) (domain.MessageID, error) {
	var out messagePayload
	if err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", msg, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("discord: response without message id")
	}
	return domain.MessageID(out.ID), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c == nil || c.Token == "" {
		return errors.New("discord disabled")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
