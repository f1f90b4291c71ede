package errortracking

import (
	"context"
	"errors"
	"testing"
)

func TestNoOpProvider(t *testing.T) {
	provider := NewNoOpProvider()

	t.Run("CaptureError", func(t *testing.T) {
		provider.CaptureError(context.Background(), errors.New("test error"), SeverityError, nil)
	})

	t.Run("CaptureMessage", func(t *testing.T) {
		provider.CaptureMessage(context.Background(), "test message", SeverityWarning, nil)
	})

	t.Run("CapturePanic", func(t *testing.T) {
		provider.CapturePanic(context.Background(), "panic!", []byte("stack trace"), nil)
	})

	t.Run("Flush", func(t *testing.T) {
		if !provider.Flush(5) {
			t.Error("Expected Flush to return true")
		}
	})

	t.Run("Close", func(t *testing.T) {
		if err := provider.Close(); err != nil {
			t.Errorf("Expected Close to return nil, got %v", err)
		}
	})
}

func TestProviderInterface(t *testing.T) {
	var _ Provider = (*NoOpProvider)(nil)
	var _ Provider = (*SentryProvider)(nil)
}
