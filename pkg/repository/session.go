package repository

import (
	"sync"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

const sessionShards = 32

type sessionEntry struct {
	mu      sync.Mutex
	session domain.Session

	// conversation is held for a whole chat exchange, inference call included.
	conversation sync.Mutex
}

type sessionShard struct {
	mu      sync.Mutex
	entries map[int64]*sessionEntry
}

// sessionRepository keeps volatile per-user state. Every user has its own
// lock; shard locks only guard entry lookup, so users never wait on each other.
type sessionRepository struct {
	shards [sessionShards]*sessionShard
}

func NewSessionRepository() *sessionRepository {
	r := &sessionRepository{}
	for i := range r.shards {
		r.shards[i] = &sessionShard{entries: make(map[int64]*sessionEntry)}
	}
	return r
}

func (r *sessionRepository) entry(userID int64) *sessionEntry {
	s := r.shards[uint64(userID)%sessionShards]

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &sessionEntry{}
		s.entries[userID] = e
	}
	return e
}

func (r *sessionRepository) Get(userID int64) domain.Session {
	e := r.entry(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session
}

// Update runs fn while holding the user's lock. Changes fn makes to the session
// are kept even when it returns an error.
func (r *sessionRepository) Update(userID int64, fn func(*domain.Session) error) error {
	e := r.entry(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(&e.session)
}

func (r *sessionRepository) SelectedModel(userID int64) (string, bool) {
	s := r.Get(userID)
	return s.SelectedModel, s.HasModel()
}

func (r *sessionRepository) SetSelectedModel(userID int64, modelID string) {
	_ = r.Update(userID, func(s *domain.Session) error {
		s.SelectedModel = modelID
		return nil
	})
}

func (r *sessionRepository) MenuRef(userID int64) (domain.MenuRef, bool) {
	s := r.Get(userID)
	return s.MenuRef, !s.MenuRef.IsZero()
}

func (r *sessionRepository) SetMenuRef(userID int64, ref domain.MenuRef) {
	_ = r.Update(userID, func(s *domain.Session) error {
		s.MenuRef = ref
		return nil
	})
}

// LockConversation serializes chat exchanges of one user and returns the unlock func.
func (r *sessionRepository) LockConversation(userID int64) func() {
	e := r.entry(userID)
	e.conversation.Lock()
	return e.conversation.Unlock
}
