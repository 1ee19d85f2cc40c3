package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "schedulr:revoked:"

// TokenDenylist はログアウト済みトークンの jti を有効期限まで保持します
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// --- Redis ---

type redisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(c *Cache) TokenDenylist {
	return &redisDenylist{client: c.Client}
}

func (d *redisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// 既に期限切れなら記録する必要はない
		return nil
	}
	if err := d.client.Set(ctx, denylistKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redisDenylist.Revoke: %w", err)
	}
	return nil
}

func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redisDenylist.IsRevoked: %w", err)
	}
	return n > 0, nil
}

// --- インメモリ (cache.url 未設定時) ---

type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryDenylist() TokenDenylist {
	return &memoryDenylist{entries: make(map[string]time.Time), now: time.Now}
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweep()
	if until.After(d.now()) {
		d.entries[jti] = until
	}
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if !until.After(d.now()) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}

// sweep は期限切れのエントリを捨てる。mu を保持して呼ぶこと
func (d *memoryDenylist) sweep() {
	now := d.now()
	for jti, until := range d.entries {
		if !until.After(now) {
			delete(d.entries, jti)
		}
	}
}
