package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandevgo/recall/internal/core"
)

type session struct {
	messages []core.Message
	summary  string
}

// Store is an in-memory Storage: the reference collaborator for tests and
// the interactive demo. It keeps insertion order per session and offers the
// same not-found semantics as the durable stores.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func New() *Store {
	return &Store{sessions: make(map[string]*session)}
}

func (s *Store) GetMessages(_ context.Context, sessionID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]core.Message, len(sess.messages))
	copy(out, sess.messages)
	return out, nil
}

func (s *Store) AddMessage(_ context.Context, sessionID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.messages = append(sess.messages, msg)
	return nil
}

func (s *Store) UpdateMessage(_ context.Context, sessionID, messageID string, update core.MessageUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("update message %s: %w", messageID, core.ErrNotFound)
	}
	for i := range sess.messages {
		if sess.messages[i].ID != messageID {
			continue
		}
		if update.Pinned != nil {
			sess.messages[i].Pinned = *update.Pinned
		}
		if update.Importance != nil {
			sess.messages[i].Importance = update.Importance
		}
		return nil
	}
	return fmt.Errorf("update message %s: %w", messageID, core.ErrNotFound)
}

func (s *Store) DeleteMessage(_ context.Context, sessionID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("delete message %s: %w", messageID, core.ErrNotFound)
	}
	for i := range sess.messages {
		if sess.messages[i].ID == messageID {
			sess.messages = append(sess.messages[:i], sess.messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete message %s: %w", messageID, core.ErrNotFound)
}

func (s *Store) GetSummary(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess.summary, nil
	}
	return "", nil
}

func (s *Store) SetSummary(_ context.Context, sessionID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.summary = summary
	return nil
}

func (s *Store) ClearSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) HasSession(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok, nil
}
