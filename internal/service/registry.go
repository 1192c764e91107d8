// File: backend/services/auth-service/internal/service/registry.go
package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/metrics"
)

// TokenStoreFactory builds the token store for one session ID.
type TokenStoreFactory func(sessionID string) interfaces.TokenStore

// Registry owns one SessionManager per console session, created lazily on
// first use and keyed by the session ID the transport layer extracts from the
// request.
type Registry struct {
	cfg      Config
	storeFor TokenStoreFactory
	deps     ManagerDeps
	logger   *zap.Logger

	mu       sync.RWMutex
	managers map[string]*SessionManager
	flows    map[string]*LoginFlow
}

// NewRegistry creates an empty registry. The Store field of deps is ignored;
// each manager gets its own store from the factory.
func NewRegistry(cfg Config, storeFor TokenStoreFactory, deps ManagerDeps) *Registry {
	return &Registry{
		cfg:      cfg,
		storeFor: storeFor,
		deps:     deps,
		logger:   deps.Logger,
		managers: make(map[string]*SessionManager),
		flows:    make(map[string]*LoginFlow),
	}
}

// Manager returns the session's manager, creating it on first access.
func (r *Registry) Manager(sessionID string) *SessionManager {
	r.mu.RLock()
	m, ok := r.managers[sessionID]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[sessionID]; ok {
		return m
	}
	deps := r.deps
	deps.Store = r.storeFor(sessionID)
	m = NewSessionManager(sessionID, r.cfg, deps)
	r.managers[sessionID] = m
	metrics.ActiveSessions.Set(float64(len(r.managers)))
	return m
}

// BeginLogin starts a fresh interactive login flow for the session,
// replacing any previous one.
func (r *Registry) BeginLogin(sessionID string, redirectOnSuccess string) *LoginFlow {
	m := r.Manager(sessionID)
	flow := NewLoginFlow(m, redirectOnSuccess)
	r.mu.Lock()
	r.flows[sessionID] = flow
	r.mu.Unlock()
	return flow
}

// LoginFlow returns the session's active login flow, or nil.
func (r *Registry) LoginFlow(sessionID string) *LoginFlow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flows[sessionID]
}

// Evict drops the session's manager and flow. The next access recreates them.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	delete(r.managers, sessionID)
	delete(r.flows, sessionID)
	metrics.ActiveSessions.Set(float64(len(r.managers)))
	r.mu.Unlock()
}
