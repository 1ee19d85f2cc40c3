package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"正常系: redis URL", "redis://localhost:6379/0", false},
		{"異常系: 空文字", "", true},
		{"異常系: スキーム違い", "http://localhost:6379", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "localhost:6379", opts.Addr)
		})
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, "redis://127.0.0.1:1/0")
	assert.Error(t, err)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	d := &memoryDenylist{entries: map[string]time.Time{}, now: func() time.Time { return now }}

	require.NoError(t, d.Revoke(ctx, "a", now.Add(time.Hour)))
	require.NoError(t, d.Revoke(ctx, "expired", now.Add(-time.Second)))

	revoked, err := d.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = d.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	// 期限を過ぎると失効扱いではなくなる
	now = now.Add(2 * time.Hour)
	revoked, err = d.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, d.entries)
}

func TestMemoryDenylist_Concurrent(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDenylist()
	until := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := string(rune('a' + i%26))
			_ = d.Revoke(ctx, jti, until)
			_, _ = d.IsRevoked(ctx, jti)
		}(i)
	}
	wg.Wait()

	revoked, err := d.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
}
