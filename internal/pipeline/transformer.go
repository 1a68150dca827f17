// --- File: internal/pipeline/transformer.go ---
// Package pipeline contains the core message processing components for the service.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-apns-service/pkg/dispatch"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

var errMissingRecipient = errors.New("recipient_id is required")

// pushRequestJSON is the wire shape published by upstream services.
type pushRequestJSON struct {
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle"`
	Body        *string           `json:"body,omitempty"`
	Sound       string            `json:"sound"`
	Badge       *int              `json:"badge,omitempty"`
	LowPriority bool              `json:"low_priority"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	DoNotStore  bool              `json:"do_not_store"`
	Topic       string            `json:"topic,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// PushRequestTransformer is a dataflow Transformer that unmarshals and validates a raw
// message payload into a dispatch.PushRequest.
//
// Malformed payloads return an error with skip=true so the StreamingService can handle
// the Nack/DLQ logic.
func PushRequestTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*dispatch.PushRequest, bool, error) {
	var wire pushRequestJSON
	if err := json.Unmarshal(msg.Payload, &wire); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal push request from message %s: %w", msg.ID, err)
	}

	if wire.RecipientID == "" {
		return nil, true, fmt.Errorf("invalid push request in message %s: %w", msg.ID, errMissingRecipient)
	}
	recipient, err := urn.Parse(wire.RecipientID)
	if err != nil {
		return nil, true, fmt.Errorf("invalid recipient in message %s: %w", msg.ID, err)
	}

	return &dispatch.PushRequest{
		RecipientID: recipient,
		Content: dispatch.Content{
			Title:       wire.Title,
			Subtitle:    wire.Subtitle,
			Body:        wire.Body,
			Sound:       wire.Sound,
			Badge:       wire.Badge,
			LowPriority: wire.LowPriority,
			ExpiresAt:   wire.ExpiresAt,
			DoNotStore:  wire.DoNotStore,
			Topic:       wire.Topic,
			Data:        wire.Data,
		},
	}, false, nil
}
