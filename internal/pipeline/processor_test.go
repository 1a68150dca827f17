package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-apns-service/internal/pipeline"
	"github.com/tinywideclouds/go-apns-service/pkg/dispatch"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Typed Mocks ---

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, tokens []string, content dispatch.Content) (string, []string, error) {
	args := m.Called(ctx, tokens, content)
	return args.String(0), args.Get(1).([]string), args.Error(2)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Fetch(ctx context.Context, user urn.URN) ([]string, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *mockTokenStore) UnregisterAPNS(ctx context.Context, user urn.URN, token string) error {
	return m.Called(ctx, user, token).Error(0)
}
func (m *mockTokenStore) RegisterAPNS(_ context.Context, _ urn.URN, _ string) error { return nil }

func TestProcessor(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	testURN, _ := urn.Parse("urn:sm:user:test-processor")

	inboundReq := &dispatch.PushRequest{
		RecipientID: testURN,
		Content:     dispatch.Content{Title: "Hello", Sound: "default"},
	}

	t.Run("Dispatches to every stored token", func(t *testing.T) {
		dispatcherMock := new(mockDispatcher)
		storeMock := new(mockTokenStore)

		storeMock.On("Fetch", mock.Anything, testURN).Return([]string{"tok-1", "tok-2"}, nil)
		dispatcherMock.On("Dispatch", mock.Anything, []string{"tok-1", "tok-2"}, inboundReq.Content).
			Return("success:2 invalid:0 total_fail:0", []string{}, nil)

		processor := pipeline.NewProcessor(dispatcherMock, storeMock, logger)
		err := processor(ctx, messagepipeline.Message{}, inboundReq)

		require.NoError(t, err)
		dispatcherMock.AssertExpectations(t)
	})

	t.Run("Self-Healing Token Cleanup", func(t *testing.T) {
		dispatcherMock := new(mockDispatcher)
		storeMock := new(mockTokenStore)

		storeMock.On("Fetch", mock.Anything, testURN).Return([]string{"dead", "alive"}, nil)
		dispatcherMock.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
			Return("success:1 invalid:1 total_fail:1", []string{"dead"}, nil)
		storeMock.On("UnregisterAPNS", mock.Anything, testURN, "dead").Return(nil)

		processor := pipeline.NewProcessor(dispatcherMock, storeMock, logger)
		err := processor(ctx, messagepipeline.Message{}, inboundReq)

		require.NoError(t, err)
		storeMock.AssertExpectations(t)
	})

	t.Run("Cleanup failure does not fail the message", func(t *testing.T) {
		dispatcherMock := new(mockDispatcher)
		storeMock := new(mockTokenStore)

		storeMock.On("Fetch", mock.Anything, testURN).Return([]string{"dead"}, nil)
		dispatcherMock.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
			Return("success:0 invalid:1 total_fail:1", []string{"dead"}, nil)
		storeMock.On("UnregisterAPNS", mock.Anything, testURN, "dead").Return(errors.New("firestore down"))

		processor := pipeline.NewProcessor(dispatcherMock, storeMock, logger)
		assert.NoError(t, processor(ctx, messagepipeline.Message{}, inboundReq))
	})

	t.Run("No devices is not an error", func(t *testing.T) {
		dispatcherMock := new(mockDispatcher)
		storeMock := new(mockTokenStore)
		storeMock.On("Fetch", mock.Anything, testURN).Return([]string{}, nil)

		processor := pipeline.NewProcessor(dispatcherMock, storeMock, logger)
		require.NoError(t, processor(ctx, messagepipeline.Message{}, inboundReq))
		dispatcherMock.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Store failure is retryable", func(t *testing.T) {
		storeMock := new(mockTokenStore)
		storeMock.On("Fetch", mock.Anything, testURN).Return(nil, errors.New("unavailable"))

		processor := pipeline.NewProcessor(new(mockDispatcher), storeMock, logger)
		assert.Error(t, processor(ctx, messagepipeline.Message{}, inboundReq))
	})

	t.Run("Dispatch error is returned after cleanup", func(t *testing.T) {
		dispatcherMock := new(mockDispatcher)
		storeMock := new(mockTokenStore)

		storeMock.On("Fetch", mock.Anything, testURN).Return([]string{"dead", "pending"}, nil)
		dispatcherMock.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
			Return("", []string{"dead"}, context.DeadlineExceeded)
		storeMock.On("UnregisterAPNS", mock.Anything, testURN, "dead").Return(nil)

		processor := pipeline.NewProcessor(dispatcherMock, storeMock, logger)
		err := processor(ctx, messagepipeline.Message{}, inboundReq)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		storeMock.AssertExpectations(t)
	})
}
