package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

type fileRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore persists the token as a small JSON document readable only by
// the current user.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (f *FileStore) Load(context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("session: read %s: %w", f.path, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("session: decode %s: %w", f.path, err)
	}
	if strings.TrimSpace(rec.Token) == "" {
		return "", ErrNoSession
	}
	return rec.Token, nil
}

func (f *FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	data, err := json.Marshal(fileRecord{Token: token, SavedAt: f.now().UTC()})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write temp: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", f.path, err)
	}
	return nil
}

// RedisStore keeps the token under a single key, optionally with a TTL so
// an idle session lapses on its own.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. An empty key defaults to
// "leadhunter:session".
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if strings.TrimSpace(key) == "" {
		key = "leadhunter:session"
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session: redis get: %w", err)
	}
	return token, nil
}

func (r *RedisStore) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}
