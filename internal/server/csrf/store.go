package csrf

import (
	"context"
	"sync"
	"time"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/server/models"
)

// Store persists per-session anti-forgery tokens. The durable implementation
// lives in the csrftokens repository; MemoryStore below is the in-process
// fallback the service switches to when the durable backend is unavailable.
// The choice of store is an injected strategy, not a module-global
// conditional.
type Store interface {
	Get(ctx context.Context, sessionID string) (*models.CSRFToken, error)
	Upsert(ctx context.Context, token *models.CSRFToken) error
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, nowMillis int64) error
}

// MemoryStore keeps tokens in a process-local map. Initialized lazily on
// first use, pruned on access, and never durable across restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]models.CSRFToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*models.CSRFToken, error) {
	m.mu.RLock()
	t, ok := m.tokens[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	if t.Expired(time.Now()) {
		_ = m.Delete(ctx, sessionID)
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, token *models.CSRFToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]models.CSRFToken)
	}
	m.tokens[token.SessionID] = *token
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, nowMillis int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.Expires <= nowMillis {
			delete(m.tokens, id)
		}
	}
	return nil
}
