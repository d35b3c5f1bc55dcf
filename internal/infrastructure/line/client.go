package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsCourier/internal/ports"
)

// Client pushes text messages through the LINE Messaging API.
type Client struct {
	pushURL      string
	channelToken string
	http         *http.Client
}

var _ ports.PushClient = (*Client)(nil)

// NewClient registers the push endpoint and channel credential.
func NewClient(pushURL, channelToken string) *Client {
	return &Client{
		pushURL:      pushURL,
		channelToken: channelToken,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

type pushPayload struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Push sends the messages in order, one request each. An HTTP-level rejection
// does not stop later messages; the result reports the worst status observed
// across the whole sequence. A transport failure aborts the remainder.
func (c *Client) Push(ctx context.Context, to string, messages []string) (ports.PushResult, error) {
	if c.channelToken == "" {
		return ports.PushResult{}, fmt.Errorf("line client misconfigured: empty channel token")
	}
	if len(messages) == 0 {
		return ports.PushResult{}, fmt.Errorf("no messages to push")
	}

	var worst ports.PushResult
	var firstRejection error
	for _, message := range messages {
		status, err := c.pushOne(ctx, to, message)
		if status == 0 && err != nil {
			return worst, err
		}
		if err != nil && firstRejection == nil {
			firstRejection = err
		}
		if status > worst.StatusCode {
			worst.StatusCode = status
		}
	}

	if firstRejection != nil {
		return worst, fmt.Errorf("line push rejected with status %d: %w", worst.StatusCode, firstRejection)
	}
	return worst, nil
}

func (c *Client) pushOne(ctx context.Context, to, message string) (int, error) {
	body, err := json.Marshal(pushPayload{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: message}},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("push message: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the body is only informative.
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("line api %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return resp.StatusCode, nil
}
