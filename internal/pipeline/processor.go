package pipeline

import (
	"context"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-apns-service/pkg/dispatch"
)

// NewProcessor creates the fan-out stage: look up the recipient's devices, push to all of
// them, then forget the tokens the gateway reported as dead.
func NewProcessor(
	dispatcher dispatch.Dispatcher,
	tokenStore dispatch.TokenStore,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[dispatch.PushRequest] {

	return func(ctx context.Context, original messagepipeline.Message, request *dispatch.PushRequest) error {
		procLogger := logger.With(
			"recipient_id", request.RecipientID.String(),
			"pubsub_msg_id", original.ID,
		)

		tokens, err := tokenStore.Fetch(ctx, request.RecipientID)
		if err != nil {
			procLogger.Error("Failed to fetch device tokens", "err", err)
			return err
		}

		if len(tokens) == 0 {
			procLogger.Info("No devices registered for user; dropping notification.")
			return nil
		}

		receipt, invalidTokens, err := dispatcher.Dispatch(ctx, tokens, request.Content)

		// Self-healing runs even when the batch was cut short.
		if len(invalidTokens) > 0 {
			procLogger.Info("Cleaning up invalid APNs tokens", "count", len(invalidTokens))
			for _, t := range invalidTokens {
				if err := tokenStore.UnregisterAPNS(ctx, request.RecipientID, t); err != nil {
					procLogger.Warn("Failed to delete APNs token", "token", t, "err", err)
				}
			}
		}

		if err != nil {
			procLogger.Error("APNs dispatch failed", "err", err)
			return err // Retryable
		}
		procLogger.Info("APNs dispatched", "receipt", receipt)

		return nil
	}
}
