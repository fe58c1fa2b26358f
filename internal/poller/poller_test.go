package poller

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClearer struct {
	mu       sync.Mutex
	sessions []string
	err      error
}

func (m *mockClearer) ClearCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions = append(m.sessions, sessionID)
	return nil
}

func newTestPoller(clearer CartClearer) *Poller {
	return &Poller{clearer: clearer, log: zap.NewNop()}
}

func TestHandleMessage_ClearsSessionCart(t *testing.T) {
	clearer := &mockClearer{}
	p := newTestPoller(clearer)

	err := p.handleMessage(context.Background(), []byte(`{"session_id":"sess-42"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-42"}, clearer.sessions)
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	clearer := &mockClearer{}
	p := newTestPoller(clearer)

	err := p.handleMessage(context.Background(), []byte(`{"session_id":`))
	require.ErrorContains(t, err, "parse checkout event")
	assert.Empty(t, clearer.sessions)
}

func TestHandleMessage_MissingSessionID(t *testing.T) {
	clearer := &mockClearer{}
	p := newTestPoller(clearer)

	err := p.handleMessage(context.Background(), []byte(`{"order_id":"abc"}`))
	require.ErrorContains(t, err, "missing session_id")
	assert.Empty(t, clearer.sessions)
}

func TestHandleMessage_ClearerError(t *testing.T) {
	clearer := &mockClearer{err: assert.AnError}
	p := newTestPoller(clearer)

	err := p.handleMessage(context.Background(), []byte(`{"session_id":"sess-1"}`))
	require.ErrorContains(t, err, "clear cart for session sess-1")
}
