package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-apns-service/internal/pipeline"
)

func messageWith(id, payload string) *messagepipeline.Message {
	return &messagepipeline.Message{
		MessageData: messagepipeline.MessageData{ID: id, Payload: []byte(payload)},
	}
}

func TestPushRequestTransformer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	testCases := []struct {
		name                  string
		inputMessage          *messagepipeline.Message
		expectError           bool
		expectedErrorContains string
	}{
		{
			name:         "Happy Path - Valid Request",
			inputMessage: messageWith("msg-1", `{"recipient_id":"urn:sm:user:user-123","title":"Hi","sound":"default"}`),
			expectError:  false,
		},
		{
			name:                  "Failure - Malformed JSON",
			inputMessage:          messageWith("msg-2", "not-json"),
			expectError:           true,
			expectedErrorContains: "failed to unmarshal push request",
		},
		{
			name:                  "Failure - Invalid URN",
			inputMessage:          messageWith("msg-3", `{"recipient_id":"urn:sm:user"}`),
			expectError:           true,
			expectedErrorContains: "invalid recipient",
		},
		{
			name:                  "Failure - Missing Recipient",
			inputMessage:          messageWith("msg-4", `{"title":"orphan"}`),
			expectError:           true,
			expectedErrorContains: "recipient_id is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, skip, err := pipeline.PushRequestTransformer(ctx, tc.inputMessage)

			if tc.expectError {
				require.Error(t, err)
				assert.True(t, skip)
				assert.Contains(t, err.Error(), tc.expectedErrorContains)
			} else {
				assert.NoError(t, err)
				assert.False(t, skip)
			}
		})
	}
}

func TestPushRequestTransformer_MapsContent(t *testing.T) {
	payload := `{
		"recipient_id": "urn:sm:user:user-123",
		"title": "Title",
		"subtitle": "Sub",
		"sound": "chime",
		"badge": 3,
		"low_priority": true,
		"expires_at": "2031-01-02T03:04:05Z",
		"do_not_store": true,
		"topic": "com.example.app",
		"data": {"conversation_id": "c-1"}
	}`

	req, skip, err := pipeline.PushRequestTransformer(context.Background(), messageWith("msg-5", payload))
	require.NoError(t, err)
	require.False(t, skip)

	assert.Equal(t, "urn:sm:user:user-123", req.RecipientID.String())
	c := req.Content
	assert.Equal(t, "Title", c.Title)
	assert.Equal(t, "Sub", c.Subtitle)
	assert.Nil(t, c.Body)
	assert.Equal(t, "chime", c.Sound)
	require.NotNil(t, c.Badge)
	assert.Equal(t, 3, *c.Badge)
	assert.True(t, c.LowPriority)
	require.NotNil(t, c.ExpiresAt)
	assert.True(t, c.ExpiresAt.Equal(time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.True(t, c.DoNotStore)
	assert.Equal(t, "com.example.app", c.Topic)
	assert.Equal(t, map[string]string{"conversation_id": "c-1"}, c.Data)
}
