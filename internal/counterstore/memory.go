package counterstore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore - хранилище счётчиков в памяти процесса с теми же
// TTL-семантиками, что у Redis. Используется в тестах и как запасной
// вариант для локальной разработки на один процесс.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	value    string
	count    int64
	expireAt time.Time // нулевое значение = без срока
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveEntry(key)
	if !ok {
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (m *MemoryStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expireAt = m.now().Add(ttl)
	}
	m.data[key] = entry
	return nil
}

func (m *MemoryStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveEntry(key)
	if !ok {
		// первый запрос окна: создаём счётчик сразу со сроком жизни
		entry = memoryEntry{count: 1, value: "1", expireAt: m.now().Add(ttl)}
		m.data[key] = entry
		return 1, ttl, nil
	}

	entry.count++
	entry.value = strconv.FormatInt(entry.count, 10)
	m.data[key] = entry
	return entry.count, entry.expireAt.Sub(m.now()), nil
}

func (m *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveEntry(key)
	if !ok {
		return 0, ErrNotFound
	}
	if entry.expireAt.IsZero() {
		return 0, nil
	}
	return entry.expireAt.Sub(m.now()), nil
}

func (m *MemoryStore) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// liveEntry отдаёт запись, лениво выбрасывая истёкшие. Вызывать под mu.
func (m *MemoryStore) liveEntry(key string) (memoryEntry, bool) {
	entry, ok := m.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expireAt.IsZero() && !entry.expireAt.After(m.now()) {
		delete(m.data, key)
		return memoryEntry{}, false
	}
	return entry, true
}
