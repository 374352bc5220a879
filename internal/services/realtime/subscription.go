// Package realtime consumes the backend's per-user change-notification
// stream. Notifications are at-least-once, possibly duplicated and possibly
// delayed; every event is delivered as an opaque "something changed" tick
// regardless of its declared type.
package realtime

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/config"
)

// reconnectDelay spaces out stream reconnection attempts
const reconnectDelay = 5 * time.Second

// Event is one change notification
type Event struct {
	Type string
	At   time.Time
}

// Subscriber delivers change notifications for the user's record collection
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Client subscribes to the backend's server-sent-event change stream
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	// no client timeout: the stream is long-lived
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new realtime client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	return &Client{
		baseURL:    cfg.BackendURL,
		apiKey:     cfg.BackendKey,
		userID:     cfg.UserID,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// Subscribe opens the change stream and delivers events until ctx is
// cancelled. Stream drops are reconnected transparently; the channel is
// closed only on cancellation.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		for {
			if err := c.consume(ctx, events); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.WithError(err).Warn("Change stream dropped, reconnecting")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	return events, nil
}

// consume reads one stream connection until it drops or ctx is cancelled
func (c *Client) consume(ctx context.Context, events chan<- Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/changes", nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream request returned status %d", resp.StatusCode)
	}

	c.logger.Debug("Change stream connected")

	eventType := ""
	sawField := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			sawField = true
		case strings.HasPrefix(line, "data:"):
			// the payload diff is not trusted; only the tick is forwarded
			sawField = true
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case line == "" && sawField:
			select {
			case events <- Event{Type: eventType, At: time.Now()}:
			case <-ctx.Done():
				return ctx.Err()
			default:
				// receiver is behind; a coalesced tick is equivalent
			}
			eventType = ""
			sawField = false
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}
