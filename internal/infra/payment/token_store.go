package payment

import (
	"context"
	"sync"
	"time"
)

// MemoryTokenStore is an in-process TokenStore. Used in tests and by
// single-instance deployments that run without Redis.
type MemoryTokenStore struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (s *MemoryTokenStore) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || time.Now().After(s.expires) {
		return "", nil
	}
	return s.token, nil
}

func (s *MemoryTokenStore) Put(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expires = time.Now().Add(ttl)
	return nil
}

func (s *MemoryTokenStore) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
