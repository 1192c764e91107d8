// File: backend/services/auth-service/internal/domain/repository/memory/token_store.go
package memory

import (
	"context"
	"sync"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
)

// TokenStore is an in-process two-slot token store, used in development mode
// and in tests where a Redis instance is not available.
type TokenStore struct {
	mu    sync.RWMutex
	slots map[interfaces.TokenSlot]string
}

var _ interfaces.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{slots: make(map[interfaces.TokenSlot]string)}
}

// GetItem returns the slot value, or an empty string when the slot is unset.
func (s *TokenStore) GetItem(_ context.Context, slot interfaces.TokenSlot) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[slot], nil
}

// SetItem writes the slot value.
func (s *TokenStore) SetItem(_ context.Context, slot interfaces.TokenSlot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = value
	return nil
}

// RemoveItem clears the slot. Removing an unset slot is not an error.
func (s *TokenStore) RemoveItem(_ context.Context, slot interfaces.TokenSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}
