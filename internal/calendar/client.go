package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"bokari/pkg/logger"
	"bokari/pkg/model"
)

// Client is a REST client for the hosted calendar API. Read paths (listing
// and existence checks) retry with bounded exponential backoff; the create
// path never retries, because a timed-out create must not be assumed to have
// silently succeeded.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	log        *logger.Logger
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

type eventPayload struct {
	ID    string            `json:"id,omitempty"`
	Start time.Time         `json:"start"`
	End   time.Time         `json:"end"`
	Kind  string            `json:"kind"`
	Meta  map[string]string `json:"metadata,omitempty"`
}

func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]model.RemoteEvent, error) {
	endpoint := fmt.Sprintf("%s/events?from=%s&to=%s",
		c.baseURL,
		url.QueryEscape(from.Format(time.RFC3339)),
		url.QueryEscape(to.Format(time.RFC3339)),
	)

	var events []model.RemoteEvent
	err := c.retryRead(ctx, "ListEvents", func() error {
		body, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("list events returned status %d", status)
		}
		var payload struct {
			Events []eventPayload `json:"events"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("decode events: %w", err))
		}
		events = events[:0]
		for _, e := range payload.Events {
			events = append(events, model.RemoteEvent{
				ID:    e.ID,
				Start: e.Start,
				End:   e.End,
				Kind:  normalizeKind(e.Kind),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, start, end time.Time, metadata map[string]string) (string, error) {
	payload, err := json.Marshal(eventPayload{
		Start: start,
		End:   end,
		Kind:  model.EventBookedAppointment,
		Meta:  metadata,
	})
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/events", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", fmt.Errorf("create event returned status %d", status)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode created event: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create event returned no id")
	}
	return created.ID, nil
}

func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	_, status, err := c.do(ctx, http.MethodDelete, c.baseURL+"/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return err
	}
	// Already deleted counts as deleted.
	if status == http.StatusNotFound || status == http.StatusNoContent || status == http.StatusOK {
		return nil
	}
	return fmt.Errorf("delete event returned status %d", status)
}

func (c *Client) EventExists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := c.retryRead(ctx, "EventExists", func() error {
		body, status, err := c.do(ctx, http.MethodGet, c.baseURL+"/events/"+url.PathEscape(eventID), nil)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusNotFound, http.StatusGone:
			exists = false
			return nil
		case http.StatusOK:
			var e struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &e); err != nil {
				return backoff.Permanent(fmt.Errorf("decode event: %w", err))
			}
			exists = e.Status != "cancelled"
			return nil
		default:
			return fmt.Errorf("event lookup returned status %d", status)
		}
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (c *Client) retryRead(ctx context.Context, op string, fn func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	return backoff.RetryNotify(fn, policy, func(err error, wait time.Duration) {
		c.log.Warn("calendar read failed, retrying",
			"operation", op,
			"wait", wait,
			"error", err,
		)
	})
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

func normalizeKind(kind string) string {
	switch kind {
	case model.EventAvailabilityMarker, model.EventBookedAppointment:
		return kind
	default:
		return model.EventOther
	}
}
