package counterstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFrozenStore(start time.Time) (*MemoryStore, *time.Time) {
	store := NewMemoryStore()
	current := start
	store.now = func() time.Time { return current }
	return store, &current
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()

	t.Run("Отсутствующий ключ", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Запись и чтение", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("Истечение по TTL", func(t *testing.T) {
		store, current := newFrozenStore(time.Now())
		require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))

		*current = current.Add(61 * time.Second)
		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Нулевой TTL означает бессрочно", func(t *testing.T) {
		store, current := newFrozenStore(time.Now())
		require.NoError(t, store.SetWithTTL(ctx, "k", "v", 0))

		*current = current.Add(365 * 24 * time.Hour)
		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})
}

func TestMemoryStore_IncrWithTTL(t *testing.T) {
	ctx := context.Background()

	t.Run("Первый инкремент заводит окно", func(t *testing.T) {
		store := NewMemoryStore()

		count, ttl, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, time.Minute, ttl)
	})

	t.Run("Повторный инкремент не продлевает окно", func(t *testing.T) {
		store, current := newFrozenStore(time.Now())

		_, _, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)

		*current = current.Add(30 * time.Second)
		count, ttl, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.Equal(t, 30*time.Second, ttl)
	})

	t.Run("После истечения окно заводится заново", func(t *testing.T) {
		store, current := newFrozenStore(time.Now())

		for i := 0; i < 5; i++ {
			_, _, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
			require.NoError(t, err)
		}

		*current = current.Add(2 * time.Minute)
		count, _, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Счётчик читается через Get", func(t *testing.T) {
		store := NewMemoryStore()

		_, _, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)
		_, _, err = store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)

		got, err := store.Get(ctx, "cnt")
		require.NoError(t, err)
		assert.Equal(t, "2", got)
	})

	t.Run("Конкурентные инкременты не теряются", func(t *testing.T) {
		store := NewMemoryStore()

		const goroutines = 50
		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		count, _, err := store.IncrWithTTL(ctx, "cnt", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(goroutines+1), count)
	})
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()

	t.Run("Отсутствующий ключ", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.TTL(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Бессрочный ключ", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SetWithTTL(ctx, "k", "v", 0))

		ttl, err := store.TTL(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), ttl)
	})

	t.Run("Остаток окна", func(t *testing.T) {
		store, current := newFrozenStore(time.Now())
		require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))

		*current = current.Add(40 * time.Second)
		ttl, err := store.TTL(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 20*time.Second, ttl)
	})
}

func TestMemoryStore_Del(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Del(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Del(ctx, "k"), "удаление отсутствующего ключа не ошибка")
}
