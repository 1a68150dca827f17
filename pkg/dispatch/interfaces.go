// --- File: pkg/dispatch/interfaces.go ---
package dispatch

import (
	"context"
	"time"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// Content is the platform-neutral part of a push: what the user sees and how the gateway
// should treat it.
type Content struct {
	Title       string
	Subtitle    string
	Body        *string
	Sound       string
	Badge       *int
	LowPriority bool
	// ExpiresAt is ignored when DoNotStore is set.
	ExpiresAt  *time.Time
	DoNotStore bool
	Topic      string
	Data       map[string]string
}

// PushRequest is one queued notification for every device of a recipient.
type PushRequest struct {
	RecipientID urn.URN
	Content     Content
}

// Dispatcher defines the contract for a component that can send notifications
// to a batch of device tokens on one platform.
type Dispatcher interface {
	// Dispatch returns a human readable receipt and the tokens the platform reported as
	// permanently invalid.
	Dispatch(ctx context.Context, tokens []string, content Content) (string, []string, error)
}

// TokenStore defines the contract for managing user device tokens.
type TokenStore interface {
	RegisterAPNS(ctx context.Context, user urn.URN, token string) error
	UnregisterAPNS(ctx context.Context, user urn.URN, token string) error
	// Fetch returns every token registered for user.
	Fetch(ctx context.Context, user urn.URN) ([]string, error)
}
