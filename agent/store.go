package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/ticketagent/types"
)

// Store prefixes every key with a namespace so several stores can share one Cache.
type Store[S any] struct {
	core      Cache[S]
	namespace string
}

func NewStore[S any](core Cache[S], namespace string) Store[S] {
	return Store[S]{core: core, namespace: namespace}
}

func (c Store[S]) key(id string) (string, error) {
	if id == "" {
		return "", errors.New("empty key")
	}
	return c.namespace + ":" + id, nil
}

func (c Store[S]) Set(ctx context.Context, id string, val S) error {
	key, err := c.key(id)
	if err != nil {
		return err
	}
	return c.core.Set(ctx, key, val)
}

func (c Store[S]) Get(ctx context.Context, id string) (S, bool, error) {
	key, err := c.key(id)
	if err != nil {
		var zero S
		return zero, false, err
	}
	return c.core.Get(ctx, key)
}

func (c Store[S]) Del(ctx context.Context, id string) error {
	key, err := c.key(id)
	if err != nil {
		return err
	}
	return c.core.Del(ctx, key)
}

func (c Store[S]) Exists(ctx context.Context, id string) (bool, error) {
	key, err := c.key(id)
	if err != nil {
		return false, err
	}
	return c.core.Exists(ctx, key)
}

// SessionStore keeps conversation states between turns. Implementations only
// need read-your-writes within a process.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*types.ConversationState, bool, error)
	Put(ctx context.Context, state *types.ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}

// CacheSessionStore is a SessionStore over any Cache. States are cloned on the way
// in and out so callers never share a plan with the cache.
type CacheSessionStore struct {
	store Store[*types.ConversationState]
}

func NewCacheSessionStore(core Cache[*types.ConversationState]) *CacheSessionStore {
	return &CacheSessionStore{store: NewStore(core, "agent:session")}
}

func NewMemorySessionStore() *CacheSessionStore {
	return NewCacheSessionStore(NewMemoryCore[*types.ConversationState]())
}

func (s *CacheSessionStore) Get(ctx context.Context, sessionID string) (*types.ConversationState, bool, error) {
	state, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !ok || state == nil {
		return nil, false, nil
	}
	return state.Clone(), true, nil
}

func (s *CacheSessionStore) Put(ctx context.Context, state *types.ConversationState) error {
	if state == nil {
		return errors.New("nil session state")
	}
	if err := s.store.Set(ctx, state.SessionID, state.Clone()); err != nil {
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *CacheSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.store.Del(ctx, sessionID)
}

var _ SessionStore = (*CacheSessionStore)(nil)
