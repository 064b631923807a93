package otp

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps challenges in a process-local map. One challenge per
// email; a new Set overwrites any prior entry.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{challenges: make(map[string]Challenge)}
}

func (s *MemoryStore) Set(_ context.Context, email string, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[normalizeEmail(email)] = challenge
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[normalizeEmail(email)]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return challenge, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, normalizeEmail(email))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
