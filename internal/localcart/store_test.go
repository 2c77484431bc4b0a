package localcart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
)

func setupRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, ttl), mr
}

func TestStoreRoundTripRedis(t *testing.T) {
	storage, mr := setupRedis(t, time.Hour)
	store := NewStore(storage, nil)
	ctx := context.Background()

	_, err := store.Update(ctx, "g1", func(c *Cart) error {
		c.AddItem(product("p1", 100), 2)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("retech-cart:g1"))
	assert.Equal(t, time.Hour, mr.TTL("retech-cart:g1"))

	got, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "p1", got.Items[0].Product.ID)

	require.NoError(t, store.Clear(ctx, "g1"))
	assert.False(t, mr.Exists("retech-cart:g1"))
}

func TestStoreLoadMissingIsEmpty(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	got, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestStoreLoadCorruptedIsEmpty(t *testing.T) {
	storage, mr := setupRedis(t, 0)
	require.NoError(t, mr.Set("retech-cart:g1", "{not json"))

	got, err := NewStore(storage, nil).Load(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestStoreUpdateErrorKeepsStoredCart(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	ctx := context.Background()
	_, err := store.Update(ctx, "g1", func(c *Cart) error {
		c.AddItem(product("p1", 100), 1)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "g1", func(c *Cart) error {
		c.Clear()
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestStoreConcurrentUpdates(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "g1", func(c *Cart) error {
				c.AddItem(product("p1", 10), 1)
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 20, got.ItemCount())
}

func TestRecentlyViewed(t *testing.T) {
	storage, _ := setupRedis(t, 0)
	rv := NewRecentlyViewed(storage)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "a"} {
		require.NoError(t, rv.Add(ctx, "v1", domain.ProductRef{ID: id}))
	}
	list, err := rv.List(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(list))

	for i := 0; i < 15; i++ {
		require.NoError(t, rv.Add(ctx, "v1", domain.ProductRef{ID: string(rune('k' + i))}))
	}
	list, err = rv.List(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, list, MaxRecentlyViewed)
	assert.Equal(t, string(rune('k'+14)), list[0].ID)
}

func ids(list []domain.ProductRef) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}
