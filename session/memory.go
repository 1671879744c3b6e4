package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	lock     sync.Mutex
	sessions map[uuid.UUID]memorySession
}

type memorySession struct {
	state   State
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[uuid.UUID]memorySession)}
}

func (store *MemoryStore) Get(_ context.Context, id uuid.UUID) (State, bool, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	session, ok := store.sessions[id]
	if !ok {
		return State{}, false, nil
	}
	if !store.now().Before(session.expires) {
		delete(store.sessions, id)
		return State{}, false, nil
	}
	return session.state, true, nil
}

func (store *MemoryStore) Save(_ context.Context, id uuid.UUID, state State) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	now := store.now()
	store.sessions[id] = memorySession{state: state, expires: now.Add(store.ttl)}

	// Sweep expired sessions on write, so abandoned sessions don't accumulate
	for otherID, session := range store.sessions {
		if !now.Before(session.expires) {
			delete(store.sessions, otherID)
		}
	}
	return nil
}

func (store *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	delete(store.sessions, id)
	return nil
}
