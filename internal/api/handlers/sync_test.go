package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/api/handlers"
)

// mockSyncer implements SourceSyncer for testing.
type mockSyncer struct {
	ingested int
	err      error
	called   bool
}

func (m *mockSyncer) RunSourceSync(_ context.Context) (int, error) {
	m.called = true
	return m.ingested, m.err
}

func TestTriggerSync(t *testing.T) {
	t.Parallel()

	syncer := &mockSyncer{ingested: 12}
	h := handlers.NewSyncHandler(syncer)

	out, err := h.TriggerSync(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.True(t, syncer.called)
	assert.Equal(t, "sync completed", out.Body.Status)
	assert.Equal(t, 12, out.Body.Ingested)
}

func TestTriggerSync_Error(t *testing.T) {
	t.Parallel()

	syncer := &mockSyncer{err: errors.New("no feed configured")}
	h := handlers.NewSyncHandler(syncer)

	_, err := h.TriggerSync(context.Background(), &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}
