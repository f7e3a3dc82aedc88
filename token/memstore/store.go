package memstore

import (
	"sync"

	"github.com/jrsteele09/go-queue-client/token"
)

var _ token.Store = (*Store)(nil)

// Store keeps tokens in memory for the life of the process.
type Store struct {
	tokens map[token.Key]token.Token
	lock   sync.RWMutex
}

func New() *Store {
	return &Store{
		tokens: make(map[token.Key]token.Token),
	}
}

func (s *Store) Get(key token.Key) (token.Token, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	t, ok := s.tokens[key]
	return t, ok
}

func (s *Store) Set(key token.Key, value token.Token) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens[key] = value
}

func (s *Store) Clear(key token.Key) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.tokens, key)
}
