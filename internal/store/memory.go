package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/campuscare/support-chat/backend/internal/model/chat"
)

// ErrUserRequired is returned when a record has no owner.
var ErrUserRequired = errors.New("store: user id is required")

// MemoryStore keeps records in process memory. It backs local development and
// tests when no document database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	chats   []chat.Message
	flagged []chat.FlaggedMessage
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:   make([]chat.Message, 0, 16),
		flagged: make([]chat.FlaggedMessage, 0, 4),
	}
}

// WriteChat appends a chat record.
func (s *MemoryStore) WriteChat(_ context.Context, msg chat.Message) error {
	if msg.UserID == "" {
		return ErrUserRequired
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.chats = append(s.chats, msg)
	s.mu.Unlock()
	return nil
}

// WriteFlagged appends a flagged record.
func (s *MemoryStore) WriteFlagged(_ context.Context, msg chat.FlaggedMessage) error {
	if msg.UserID == "" {
		return ErrUserRequired
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.flagged = append(s.flagged, msg)
	s.mu.Unlock()
	return nil
}

// Chats returns a copy of every stored chat record.
func (s *MemoryStore) Chats() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.chats))
	copy(copied, s.chats)
	return copied
}

// Flagged returns a copy of every stored flagged record.
func (s *MemoryStore) Flagged() []chat.FlaggedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.FlaggedMessage, len(s.flagged))
	copy(copied, s.flagged)
	return copied
}

// ChatsByUser returns the chat records owned by userID in write order.
func (s *MemoryStore) ChatsByUser(userID string) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []chat.Message
	for _, msg := range s.chats {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out
}
