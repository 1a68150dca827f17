// --- File: internal/platform/apns/apnsdispatcher.go ---
package apns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tinywideclouds/go-apns-service/pkg/dispatch"
)

// DefaultMaxConcurrentSends bounds in-flight requests per Dispatch call.
const DefaultMaxConcurrentSends = 8

// Sender is the part of Connection the Dispatcher needs. It allows mocking for unit tests.
type Sender interface {
	Send(ctx context.Context, n *Notification) Outcome
}

// Dispatcher fans a single piece of content out to many device tokens.
type Dispatcher struct {
	sender        Sender
	topic         string
	maxConcurrent int
	onSucceeded   func(Outcome)
	onFailed      func(Outcome)
	logger        *slog.Logger
}

// DispatcherOption customises NewDispatcher.
type DispatcherOption func(*Dispatcher)

// WithTopic sets the default apns-topic (the app bundle ID) used when content has none.
func WithTopic(topic string) DispatcherOption {
	return func(d *Dispatcher) { d.topic = topic }
}

// WithMaxConcurrentSends bounds concurrent requests. Values below 1 are ignored.
func WithMaxConcurrentSends(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxConcurrent = n
		}
	}
}

// OnSucceeded registers a callback for each delivered notification. Callbacks run on the
// sending goroutines and must be safe for concurrent use.
func OnSucceeded(fn func(Outcome)) DispatcherOption {
	return func(d *Dispatcher) { d.onSucceeded = fn }
}

// OnFailed registers a callback for each notification that was not delivered.
func OnFailed(fn func(Outcome)) DispatcherOption {
	return func(d *Dispatcher) { d.onFailed = fn }
}

// NewDispatcher sends through sender. A nil logger falls back to slog.Default().
func NewDispatcher(sender Sender, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		sender:        sender,
		maxConcurrent: DefaultMaxConcurrentSends,
		logger:        logger.With("component", "APNSDispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)

// Dispatch sends content to every token. APNs has no multicast endpoint, so this is one
// request per token. Individual failures are tallied into the receipt; only a cancelled
// ctx is returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, content dispatch.Content) (string, []string, error) {
	if len(tokens) == 0 {
		return "skipped: no tokens", nil, nil
	}

	outcomes := make([]Outcome, len(tokens))
	g := new(errgroup.Group)
	g.SetLimit(d.maxConcurrent)

	for i, deviceToken := range tokens {
		g.Go(func() error {
			outcomes[i] = d.sendOne(ctx, deviceToken, content)
			return nil
		})
	}
	_ = g.Wait()

	var invalidTokens []string
	successCount := 0
	failureCount := 0
	for i, o := range outcomes {
		if o.Sent {
			successCount++
			continue
		}
		failureCount++
		if IsInvalidTokenReason(o.Reason) || errors.Is(o.Err, ErrInvalidToken) {
			invalidTokens = append(invalidTokens, tokens[i])
		}
	}

	receipt := fmt.Sprintf("success:%d invalid:%d total_fail:%d", successCount, len(invalidTokens), failureCount)
	if err := ctx.Err(); err != nil {
		return receipt, invalidTokens, fmt.Errorf("apns dispatch interrupted: %w", err)
	}
	return receipt, invalidTokens, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, deviceToken string, content dispatch.Content) Outcome {
	n, err := d.notificationFor(deviceToken, content)
	var o Outcome
	if err != nil {
		o = failed(n, ErrInvalidToken.Error(), err)
	} else {
		o = d.sender.Send(ctx, n)
	}

	if o.Sent {
		if d.onSucceeded != nil {
			d.onSucceeded(o)
		}
		return o
	}

	if IsInvalidTokenReason(o.Reason) {
		d.logger.Info("APNs reported dead token", "reason", o.Reason, "status", o.StatusCode)
	} else {
		// Topic or payload problems: the token may be fine, our configuration is not.
		d.logger.Warn("APNs notification failed", "reason", o.Reason, "status", o.StatusCode)
	}
	if d.onFailed != nil {
		d.onFailed(o)
	}
	return o
}

func (d *Dispatcher) notificationFor(deviceToken string, content dispatch.Content) (*Notification, error) {
	n, err := NewNotification(deviceToken, content.Title, content.Subtitle)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return verr.Notification, err
		}
		return nil, err
	}

	n.Topic = d.topic
	if content.Topic != "" {
		n.Topic = content.Topic
	}
	n.Body = content.Body
	n.Sound = content.Sound
	n.Badge = content.Badge
	n.LowPriority = content.LowPriority
	switch {
	case content.DoNotStore:
		n.Expiration = DoNotStore
	case content.ExpiresAt != nil:
		n.Expiration = ExpireAt(*content.ExpiresAt)
	}
	if len(content.Data) > 0 {
		n.Data = make(map[string]any, len(content.Data))
		for k, v := range content.Data {
			n.Data[k] = v
		}
	}
	return n, nil
}
