package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/budongsan-crm/pkg/util"
	"github.com/redis/go-redis/v9"
)

// CodeStore implements util.CodeStore on redis so codes survive restarts and
// are shared between instances.
type CodeStore struct {
	client *redis.Client
	prefix string
}

func NewCodeStore(c *redis.Client) *CodeStore {
	return &CodeStore{client: c, prefix: "verify:"}
}

func (s *CodeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *CodeStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", util.ErrCodeNotFound
	}
	return val, err
}

func (s *CodeStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

var _ util.CodeStore = (*CodeStore)(nil)
