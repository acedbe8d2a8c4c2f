package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/api/handlers"
	"github.com/vindexhq/vindex/internal/store"
)

func TestGetSystemState(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	seedVehicles(t, s)
	h := handlers.NewSystemStateHandler(s)

	out, err := h.GetSystemState(context.Background(), &struct{}{})
	require.NoError(t, err)
	require.NotNil(t, out.Body)
	assert.Equal(t, 3, out.Body.VehiclesTotal)
	assert.Zero(t, out.Body.ObservationsTotal)
}
