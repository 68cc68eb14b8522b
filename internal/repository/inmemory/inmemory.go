package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shortlink/internal/domain/models"
)

const initLastID = 0

// InmemoryStorage повторяет контракт postgres-хранилища в памяти,
// сохраняя его ошибки. Используется в тестах и для локального запуска
// без базы.
type InmemoryStorage struct {
	mu         sync.Mutex
	links      map[string]models.Link // short_code -> link
	users      map[string]models.User // email -> user
	visits     []models.VisitLog
	lastLinkID int64
	lastUserID int64
}

func NewStorage() *InmemoryStorage {
	return &InmemoryStorage{
		links:      make(map[string]models.Link),
		users:      make(map[string]models.User),
		lastLinkID: initLastID,
		lastUserID: initLastID,
	}
}

func (m *InmemoryStorage) LinkCreate(ctx context.Context, link models.Link) (models.Link, error) {
	if err := ctx.Err(); err != nil {
		return models.Link{}, err
	}
	if link.ShortCode == "" || link.LongURL == "" {
		return models.Link{}, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ShortCode]; exists {
		return models.Link{}, models.ErrCodeTaken
	}

	m.lastLinkID++
	link.ID = m.lastLinkID
	m.links[link.ShortCode] = link
	return link, nil
}

func (m *InmemoryStorage) LinkGetByShortCode(ctx context.Context, shortCode string) (models.Link, error) {
	if err := ctx.Err(); err != nil {
		return models.Link{}, err
	}
	if shortCode == "" {
		return models.Link{}, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[shortCode]
	if !exists {
		return models.Link{}, models.ErrUnfound
	}
	return link, nil
}

func (m *InmemoryStorage) LinkGetBatchByUser(ctx context.Context, ownerID int64) ([]models.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var links []models.Link
	for _, link := range m.links {
		if link.OwnerID == ownerID {
			links = append(links, link)
		}
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].ID < links[j].ID
	})

	return links, nil
}

func (m *InmemoryStorage) LinkDeleteBatchByUser(ctx context.Context, ownerID int64, shortCodes []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ownerID <= 0 || len(shortCodes) == 0 {
		return nil, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []string
	for _, code := range shortCodes {
		link, exists := m.links[code]
		if !exists || link.OwnerID != ownerID {
			continue
		}
		delete(m.links, code)
		deleted = append(deleted, code)
	}

	return deleted, nil
}

func (m *InmemoryStorage) ClickIncrement(ctx context.Context, shortCode string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if shortCode == "" || delta <= 0 {
		return models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[shortCode]
	if !exists {
		return nil
	}
	link.ClickCount += delta
	m.links[shortCode] = link
	return nil
}

func (m *InmemoryStorage) VisitLogInsertBatch(ctx context.Context, visits []models.VisitLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.visits = append(m.visits, visits...)
	return nil
}

func (m *InmemoryStorage) VisitCountDaily(ctx context.Context, shortCode string, ownerID int64, days int) ([]models.DailyClicks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if shortCode == "" || days <= 0 {
		return nil, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[shortCode]
	if !exists || link.OwnerID != ownerID {
		return nil, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	byDay := make(map[string]int64)
	for _, v := range m.visits {
		if v.ShortCode != shortCode || v.VisitTime.Before(since) {
			continue
		}
		byDay[v.VisitTime.Format("2006-01-02")]++
	}

	stats := make([]models.DailyClicks, 0, len(byDay))
	for day, clicks := range byDay {
		stats = append(stats, models.DailyClicks{Day: day, Clicks: clicks})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Day < stats[j].Day
	})

	return stats, nil
}

func (m *InmemoryStorage) UserCreate(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if user.Email == "" || user.PasswordHash == "" {
		return models.User{}, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Email]; exists {
		return models.User{}, models.ErrConflict
	}

	m.lastUserID++
	user.ID = m.lastUserID
	m.users[user.Email] = user
	return user, nil
}

func (m *InmemoryStorage) UserGetByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if email == "" {
		return models.User{}, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[email]
	if !exists {
		return models.User{}, models.ErrUnfound
	}
	return user, nil
}

func (m *InmemoryStorage) UserGetByID(ctx context.Context, id int64) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, models.ErrUnfound
}

// VisitLogs отдаёт копию журнала посещений, нужно тестам.
func (m *InmemoryStorage) VisitLogs() []models.VisitLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.VisitLog, len(m.visits))
	copy(out, m.visits)
	return out
}

func (m *InmemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *InmemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links = make(map[string]models.Link)
	m.users = make(map[string]models.User)
	m.visits = nil
	m.lastLinkID = initLastID
	m.lastUserID = initLastID
	return nil
}
