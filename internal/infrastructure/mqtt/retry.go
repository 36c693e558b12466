package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
)

// ConnectWithRetry calls Connect until it succeeds, backing off exponentially
// between cfg.Reconnect.InitialDelay and cfg.Reconnect.MaxDelay.
//
// MaxAttempts > 0 bounds the number of attempts; otherwise it retries until
// ctx is cancelled. The logger may be nil.
func ConnectWithRetry(ctx context.Context, cfg config.MQTTConfig, logger Logger) (*Client, error) {
	bo := newBackOff(cfg.Reconnect)

	var policy backoff.BackOff = bo
	if cfg.Reconnect.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(bo, uint64(cfg.Reconnect.MaxAttempts-1))
	}
	policy = backoff.WithContext(policy, ctx)

	var client *Client
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		c, err := Connect(cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}, policy, func(err error, wait time.Duration) {
		if logger != nil {
			logger.Warn("MQTT connect failed, retrying",
				"attempt", attempt,
				"retry_in", wait.String(),
				"error", err,
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("connecting after %d attempt(s): %w", attempt, err)
	}

	if logger != nil {
		client.SetLogger(logger)
	}
	return client, nil
}

func newBackOff(rc config.MQTTReconnectConfig) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if rc.InitialDelay > 0 {
		bo.InitialInterval = time.Duration(rc.InitialDelay) * time.Second
	}
	if rc.MaxDelay > 0 {
		bo.MaxInterval = time.Duration(rc.MaxDelay) * time.Second
	}
	// Attempts, not wall-clock time, bound the retries.
	bo.MaxElapsedTime = 0
	return bo
}
