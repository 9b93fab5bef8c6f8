package twilio

import (
	"context"

	"leadwire/internal/errors"
	"leadwire/pkg/circuitbreaker"
)

// breakerClient wraps a Client with a circuit breaker so a degraded provider
// stops eating the gateway timeout on every send. Only transport-level
// (retryable) failures count against the breaker; rejections like an invalid
// destination number pass through without tripping it.
type breakerClient struct {
	inner   Client
	breaker *circuitbreaker.Breaker
}

// WithBreaker wraps client so sends flow through the given breaker.
func WithBreaker(client Client, breaker *circuitbreaker.Breaker) Client {
	return &breakerClient{inner: client, breaker: breaker}
}

func (c *breakerClient) SendText(ctx context.Context, to, body string) (string, error) {
	var sid string
	var sendErr error

	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		sid, sendErr = c.inner.SendText(ctx, to, body)
		if sendErr != nil && !errors.IsRetryable(sendErr) {
			// The provider is reachable and rejected this message only;
			// the call counts as a success for breaker purposes.
			return nil
		}
		return sendErr
	})
	if err != nil {
		if circuitbreaker.IsOpenError(err) {
			return "", errors.Wrap(err, errors.ErrCodeGatewaySend, "gateway circuit open")
		}
		return "", err
	}
	if sendErr != nil {
		return "", sendErr
	}

	return sid, nil
}
