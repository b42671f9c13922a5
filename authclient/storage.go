package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStorageUnavailable is an exported constant or variable used by the session oracle.
var ErrStorageUnavailable = errors.New("token storage unavailable")

// StoredSession is the persisted token pair. Claims are re-derived from the
// access token on load, never stored.
type StoredSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenStorage abstracts where a client keeps its token pair. Load returns
// (nil, nil) when no session is stored.
type TokenStorage interface {
	Load(ctx context.Context) (*StoredSession, error)
	Store(ctx context.Context, sess *StoredSession) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the token pair in process memory only. It backs the
// recovery client: nothing is written to disk, cookies, or any store shared
// with the primary session, so discarding the client discards the tokens.
type MemoryStorage struct {
	mu   sync.Mutex
	sess *StoredSession
}

// NewMemoryStorage creates an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load describes the load operation and its observable behavior.
func (m *MemoryStorage) Load(_ context.Context) (*StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	out := *m.sess
	return &out, nil
}

// Store describes the store operation and its observable behavior.
func (m *MemoryStorage) Store(_ context.Context, sess *StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess == nil {
		m.sess = nil
		return nil
	}
	copied := *sess
	m.sess = &copied
	return nil
}

// Clear describes the clear operation and its observable behavior.
func (m *MemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

// RedisStorage persists the primary client's token pair in Redis, keyed per
// browser session. It is the shared-storage analogue: every tab (and every
// server replica) bridging the same browser session reads the same tokens.
type RedisStorage struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisStorage creates a [RedisStorage] under the given key. ttl should
// cover the refresh token's useful lifetime; zero means no expiry.
func NewRedisStorage(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{redis: rdb, key: key, ttl: ttl}
}

// Load describes the load operation and its observable behavior.
func (r *RedisStorage) Load(ctx context.Context) (*StoredSession, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var sess StoredSession
	if err := json.Unmarshal(data, &sess); err != nil {
		// Corrupt blob reads as no session; the next sign-in overwrites it.
		return nil, nil
	}
	return &sess, nil
}

// Store describes the store operation and its observable behavior.
func (r *RedisStorage) Store(ctx context.Context, sess *StoredSession) error {
	if sess == nil {
		return r.Clear(ctx)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Clear describes the clear operation and its observable behavior.
func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
