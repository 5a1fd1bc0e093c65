package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"blogmux/model"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Prefs is the part of the view state that survives a reload: the active
// category, filters, sort, page size and search query. Blog lists are
// transient cache and are never part of this.
type Prefs struct {
	ActiveTab   model.FeedCategory `json:"activeTab"`
	Filters     model.Filters      `json:"filters"`
	SortBy      model.SortBy       `json:"sortBy"`
	Limit       int                `json:"limit"`
	SearchQuery string             `json:"searchQuery"`
}

// PrefsStore persists view preferences keyed by viewer.
type PrefsStore interface {
	Save(ctx context.Context, key string, prefs Prefs) error
	// Load returns nil without error when no preferences are saved for key.
	Load(ctx context.Context, key string) (*Prefs, error)
}

const prefsTTL = 30 * 24 * time.Hour

type redisKeyParser struct {
	delimiter string
}

func (r redisKeyParser) validateKey(key string) bool {
	return key != "" && !strings.Contains(key, r.delimiter)
}

func (r redisKeyParser) encodePrefsKey(viewerKey string) (string, error) {
	if !r.validateKey(viewerKey) {
		return "", fmt.Errorf("invalid viewer key: %s", viewerKey)
	}
	return fmt.Sprintf("feedprefs%s%s", r.delimiter, viewerKey), nil
}

// RedisPrefsStore persists preferences in redis with a 30 day TTL.
type RedisPrefsStore struct {
	inner     *redis.Client
	keyParser redisKeyParser
}

// GetRedisPrefsStore connects to the redis instance configured through
// REDIS_HOST / REDIS_PORT / REDIS_PASSWD and returns error when it is not
// reachable.
func GetRedisPrefsStore() (*RedisPrefsStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisPrefsStore{
		inner:     redisClient,
		keyParser: redisKeyParser{delimiter: "__"},
	}, nil
}

func (r *RedisPrefsStore) Save(ctx context.Context, key string, prefs Prefs) error {
	encoded, err := r.keyParser.encodePrefsKey(key)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(prefs)
	if err != nil {
		return errors.Wrap(err, "marshal feed prefs")
	}
	return r.inner.Set(ctx, encoded, payload, prefsTTL).Err()
}

func (r *RedisPrefsStore) Load(ctx context.Context, key string) (*Prefs, error) {
	encoded, err := r.keyParser.encodePrefsKey(key)
	if err != nil {
		return nil, err
	}
	payload, err := r.inner.Get(ctx, encoded).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prefs Prefs
	if err := json.Unmarshal([]byte(payload), &prefs); err != nil {
		return nil, errors.Wrap(err, "unmarshal feed prefs")
	}
	return &prefs, nil
}

// MemoryPrefsStore is the in-process fallback used when redis is not
// configured, and the store of choice in tests.
type MemoryPrefsStore struct {
	mu    sync.RWMutex
	prefs map[string]Prefs
}

func NewMemoryPrefsStore() *MemoryPrefsStore {
	return &MemoryPrefsStore{prefs: map[string]Prefs{}}
}

func (m *MemoryPrefsStore) Save(ctx context.Context, key string, prefs Prefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[key] = prefs
	return nil
}

func (m *MemoryPrefsStore) Load(ctx context.Context, key string) (*Prefs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefs, ok := m.prefs[key]
	if !ok {
		return nil, nil
	}
	return &prefs, nil
}
