package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoOpNotifier_SendAlert(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := n.SendAlert(context.Background(), &AlertPayload{
		VehicleLabel: "1969 Chevrolet Camaro",
		Accuracy:     0.4,
		Critical:     true,
	})
	require.NoError(t, err)
}

func TestNoOpNotifier_SendBatchAlert(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	alerts := []AlertPayload{
		{VehicleLabel: "1969 Chevrolet Camaro", Accuracy: 0.4},
		{VehicleLabel: "2003 Honda Accord", Accuracy: 0.9},
	}

	err := n.SendBatchAlert(context.Background(), alerts)
	require.NoError(t, err)
}

func TestNoOpNotifier_SendBatchAlert_Empty(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := n.SendBatchAlert(context.Background(), nil)
	require.NoError(t, err)
}

// compile-time interface checks.
var (
	_ Notifier = (*NoOpNotifier)(nil)
	_ Notifier = (*DiscordNotifier)(nil)
)
