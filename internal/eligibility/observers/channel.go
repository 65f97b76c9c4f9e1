// Package observers provides ready-made eligibility.Observer implementations
// for callers that do not want to write their own.
package observers

import (
	"context"

	"policycheck/internal/eligibility"
)

// Notification is one observer callback captured as a value.
type Notification struct {
	Result map[string]any
	Err    *eligibility.Error
}

// OK reports whether the notification was a success.
func (n Notification) OK() bool {
	return n.Err == nil
}

// Channel turns observer callbacks into channel receives, for callers that
// want to wait on outcomes synchronously.
type Channel struct {
	ch chan Notification
}

// NewChannel creates a Channel observer. buffer should cover the number of
// in-flight checks so transport goroutines never block on delivery.
func NewChannel(buffer int) *Channel {
	if buffer < 0 {
		buffer = 0
	}
	return &Channel{ch: make(chan Notification, buffer)}
}

func (c *Channel) OnSuccess(result map[string]any) {
	c.ch <- Notification{Result: result}
}

func (c *Channel) OnFailure(err *eligibility.Error) {
	c.ch <- Notification{Err: err}
}

// C exposes the receive side.
func (c *Channel) C() <-chan Notification {
	return c.ch
}

// Next waits for the next notification or ctx expiry.
func (c *Channel) Next(ctx context.Context) (Notification, error) {
	select {
	case n := <-c.ch:
		return n, nil
	case <-ctx.Done():
		return Notification{}, ctx.Err()
	}
}
