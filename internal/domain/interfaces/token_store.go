// File: backend/services/auth-service/internal/domain/interfaces/token_store.go
package interfaces

import "context"

// TokenSlot names one of the two credential slots a session owns.
type TokenSlot string

const (
	AccessTokenSlot TokenSlot = "access_token"
	IDTokenSlot     TokenSlot = "id_token"
)

// TokenStore is the durable two-slot credential storage for one session. The
// session lifecycle manager is its only writer. A missing slot reads as an
// empty string, not an error.
type TokenStore interface {
	GetItem(ctx context.Context, slot TokenSlot) (string, error)
	SetItem(ctx context.Context, slot TokenSlot, value string) error
	RemoveItem(ctx context.Context, slot TokenSlot) error
}
