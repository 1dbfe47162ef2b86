package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/mullvad-rotate/relay"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache", "relays.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_Empty(t *testing.T) {
	cache := openTestCache(t)

	_, _, err := cache.Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoCache))
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	records, err := Decode([]byte(sampleCatalog))
	require.NoError(t, err)
	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Save(ctx, records, fetchedAt))

	loaded, at, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.True(t, at.Equal(fetchedAt))
	assert.Equal(t, records, loaded)

	// absent fields stay absent
	assert.False(t, loaded[2].Has(relay.FieldCity))
	assert.False(t, loaded[3].Has(relay.FieldHostname))
}

func TestCache_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	first := []relay.Record{
		{Hostname: "a", Present: relay.FieldHostname},
		{Hostname: "b", Present: relay.FieldHostname},
	}
	second := []relay.Record{
		{Hostname: "c", Present: relay.FieldHostname},
	}
	require.NoError(t, cache.Save(ctx, first, time.Unix(100, 0)))
	require.NoError(t, cache.Save(ctx, second, time.Unix(200, 0)))

	loaded, at, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
	assert.Equal(t, int64(200), at.Unix())
}

func TestCache_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relays.db")

	cache, err := OpenCache(path)
	require.NoError(t, err)
	records := []relay.Record{{Hostname: "se-got-wg-001", Present: relay.FieldHostname}}
	require.NoError(t, cache.Save(ctx, records, time.Unix(42, 0)))
	require.NoError(t, cache.Close())

	reopened, err := OpenCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, _, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}
