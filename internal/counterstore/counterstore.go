package counterstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound возвращается при чтении отсутствующего или истёкшего ключа.
var ErrNotFound = errors.New("key not found")

/*
Store - контракт key-value хранилища для счётчиков и кэш-записей.
Единственное место, где допускается разделяемое изменяемое состояние:
вся атомарность лежит на самом хранилище, сервисы локально
состояние счётчиков не держат.
*/

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrWithTTL атомарно увеличивает счётчик и, если ключ только что
	// создан, вешает на него ttl. Возвращает новое значение и остаток
	// окна. Инкремент и установка срока - одна операция на стороне
	// хранилища, отдельного read-then-write здесь быть не должно.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)

	// TTL возвращает остаток жизни ключа. Для ключа без срока - 0 и nil,
	// для отсутствующего - ErrNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)

	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
