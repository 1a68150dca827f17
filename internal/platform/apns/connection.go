// --- File: internal/platform/apns/connection.go ---
package apns

import (
	"context"
	"errors"
	"log/slog"
)

// Connection owns a single channel to the gateway for the lifetime of its Configuration.
// It never retries, reconnects or pools; that belongs to whoever queues the notifications.
type Connection struct {
	cfg     *Configuration
	channel Channel
	target  Target
	logger  *slog.Logger
}

// ConnectionOption customises NewConnection.
type ConnectionOption func(*connectionOptions)

type connectionOptions struct {
	dialer Dialer
}

// WithDialer replaces DialAPNS, e.g. with an in-memory channel.
func WithDialer(d Dialer) ConnectionOption {
	return func(o *connectionOptions) { o.dialer = d }
}

// NewConnection opens the channel immediately so bad credentials fail at startup.
// A nil logger falls back to slog.Default().
func NewConnection(cfg *Configuration, logger *slog.Logger, opts ...ConnectionOption) (*Connection, error) {
	if cfg == nil {
		return nil, errors.New("apns: configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := connectionOptions{dialer: DialAPNS}
	for _, opt := range opts {
		opt(&o)
	}

	endpoint := EndpointFor(cfg.Environment(), false)
	channel, err := o.dialer(cfg.Identity(), endpoint)
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	if cfg.UseAlternatePort() {
		channel.UseAlternatePort()
		endpoint = EndpointFor(cfg.Environment(), true)
	}

	log := logger.With("component", "APNSConnection")
	log.Info("APNs channel opened", "environment", cfg.Environment().String(), "endpoint", endpoint.URL())

	return &Connection{
		cfg:     cfg,
		channel: channel,
		target:  TargetFor(cfg.Environment()),
		logger:  log,
	}, nil
}

func (c *Connection) Configuration() *Configuration { return c.cfg }

// Send delivers n and waits for the gateway's answer or for ctx to end. Cancelling ctx
// abandons this request only; the channel stays usable.
func (c *Connection) Send(ctx context.Context, n *Notification) Outcome {
	wire, err := n.Serialize()
	if err != nil {
		var verr *ValidationError
		reason := err.Error()
		if errors.As(err, &verr) {
			reason = verr.Err.Error()
		}
		c.logger.Debug("Notification rejected before send", "reason", reason)
		return failed(n, reason, err)
	}

	res, err := c.channel.Send(ctx, wire, c.target)
	if err != nil {
		c.logger.Warn("APNs transport failed", "target", c.target.String(), "err", err)
		return failed(n, err.Error(), err)
	}
	if res == nil {
		return failed(n, "empty response", errors.New("apns: channel returned no response"))
	}
	if res.Sent() {
		return succeeded(n, res)
	}
	c.logger.Debug("APNs rejected notification", "reason", res.Reason, "status", res.StatusCode)
	return rejected(n, res)
}

// SendAsync runs Send on its own goroutine. The returned channel yields exactly one
// Outcome and is then closed.
func (c *Connection) SendAsync(ctx context.Context, n *Notification) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		out <- c.Send(ctx, n)
	}()
	return out
}
