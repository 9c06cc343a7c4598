package util

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var ErrCodeNotFound = errors.New("verification code not found")

// CodeStore keeps short-lived verification values (email codes, verified marks).
// Redis backs it in production, MemoryCodeStore when redis is not configured.
type CodeStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// GenerateVerificationCode generates a random 6-digit code
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type storedCode struct {
	value     string
	expiresAt time.Time
}

// MemoryCodeStore 단일 인스턴스용 인메모리 저장소
type MemoryCodeStore struct {
	mu    sync.Mutex
	items map[string]storedCode
	now   func() time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		items: make(map[string]storedCode),
		now:   time.Now,
	}
}

func (s *MemoryCodeStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = storedCode{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return "", ErrCodeNotFound
	}
	if s.now().After(item.expiresAt) {
		delete(s.items, key)
		return "", ErrCodeNotFound
	}
	return item.value, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// PurgeExpired removes expired entries. Called from the cleanup cron job.
func (s *MemoryCodeStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}
