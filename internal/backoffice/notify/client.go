package notify

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/common/notifyprotocol"
	"backoffice/pkg/logging"
	"backoffice/pkg/timeutils"

	"github.com/go-resty/resty/v2"
)

type ClientConfig struct {
	ServerAddress      string
	RetryAttemptDelays []time.Duration
}

// Client posts events to the external notification sink.
type Client struct {
	logger *logging.ZapLogger
	cfg    ClientConfig
}

func NewClient(cfg ClientConfig, logger *logging.ZapLogger) *Client {
	if len(cfg.RetryAttemptDelays) == 0 {
		cfg.RetryAttemptDelays = []time.Duration{time.Second, 3 * time.Second, 10 * time.Second}
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Client) Send(ctx context.Context, event notifyprotocol.Event) error {
	url := c.cfg.ServerAddress + "/api/events"
	_, err := timeutils.Retry(
		ctx,
		c.cfg.RetryAttemptDelays,
		func(ctx context.Context) (struct{}, error) {
			resp, err := resty.
				New().
				R().
				SetContext(ctx).
				SetBody(event).
				Post(url)
			if err != nil {
				return struct{}{}, fmt.Errorf("post request failed: %w", err)
			}
			statusCode := resp.StatusCode()
			if statusCode < 200 || statusCode >= 300 {
				return struct{}{}, fmt.Errorf("unexpected status code %v", statusCode)
			}
			return struct{}{}, nil
		},
		func(_ struct{}, err error) bool {
			return err != nil
		},
	)
	if err != nil {
		return fmt.Errorf("sending event %q failed: %w", event.Key(), err)
	}
	return nil
}
