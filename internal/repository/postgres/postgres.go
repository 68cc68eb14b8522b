package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain/models"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	storageMaxOpenConnections     = 10
	storageMaxIdleConnections     = 4
	storageConnectionsMaxIdleTime = 2 * time.Minute
	storageConnectionsLifetime    = 30 * time.Minute
	storagePingTimeout            = 5 * time.Second
)

const (
	pgErrCodeUniqueViolation = "23505"

	constraintLinksShortCode = "links_short_code_key"
	constraintUsersEmail     = "users_email_key"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	initConnectionPools(db)

	ctxPing, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func initConnectionPools(db *sql.DB) {
	db.SetMaxOpenConns(storageMaxOpenConnections)
	db.SetMaxIdleConns(storageMaxIdleConnections)
	db.SetConnMaxIdleTime(storageConnectionsMaxIdleTime)
	db.SetConnMaxLifetime(storageConnectionsLifetime)
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			status SMALLINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT users_email_key UNIQUE (email)
		);

		CREATE TABLE IF NOT EXISTS links (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id),
			short_code VARCHAR(16) NOT NULL,
			long_url TEXT NOT NULL,
			click_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			expire_at TIMESTAMPTZ,
			CONSTRAINT links_short_code_key UNIQUE (short_code)
		);

		CREATE TABLE IF NOT EXISTS visit_logs (
			id BIGSERIAL PRIMARY KEY,
			short_code VARCHAR(16) NOT NULL,
			long_url TEXT NOT NULL,
			ip TEXT NOT NULL,
			user_agent TEXT NOT NULL DEFAULT '',
			referer TEXT NOT NULL DEFAULT '',
			visit_time TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS visit_logs_code_time_idx
			ON visit_logs (short_code, visit_time)`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// LinkCreate вставляет ссылку, полагаясь на уникальный индекс short_code.
// Вставка и есть резервирование кода: окна между проверкой и записью нет.
func (p *PostgresStorage) LinkCreate(ctx context.Context, link models.Link) (models.Link, error) {
	if link.ShortCode == "" || link.LongURL == "" {
		return models.Link{}, models.ErrInvalidData
	}

	var expireAt sql.NullTime
	if !link.ExpireAt.IsZero() {
		expireAt = sql.NullTime{Time: link.ExpireAt, Valid: true}
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO links (owner_id, short_code, long_url, created_at, expire_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		link.OwnerID, link.ShortCode, link.LongURL, link.CreatedAt, expireAt,
	).Scan(&link.ID)

	if err != nil {
		if isUniqueViolation(err, constraintLinksShortCode) {
			return models.Link{}, fmt.Errorf("%w: %s", models.ErrCodeTaken, link.ShortCode)
		}
		return models.Link{}, fmt.Errorf("database error: %w", err)
	}

	return link, nil
}

func (p *PostgresStorage) LinkGetByShortCode(ctx context.Context, shortCode string) (models.Link, error) {
	if shortCode == "" {
		return models.Link{}, fmt.Errorf("%w: shortCode must not be empty", models.ErrInvalidData)
	}

	var (
		link     models.Link
		expireAt sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, owner_id, short_code, long_url, click_count, created_at, expire_at
		FROM links WHERE short_code = $1`,
		shortCode,
	).Scan(&link.ID, &link.OwnerID, &link.ShortCode, &link.LongURL, &link.ClickCount, &link.CreatedAt, &expireAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Link{}, fmt.Errorf("%w: shortCode not found", models.ErrUnfound)
		}
		return models.Link{}, fmt.Errorf("failed to get link: %w", err)
	}

	if expireAt.Valid {
		link.ExpireAt = expireAt.Time
	}
	return link, nil
}

func (p *PostgresStorage) LinkGetBatchByUser(ctx context.Context, ownerID int64) ([]models.Link, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: invalid owner id", models.ErrInvalidData)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner_id, short_code, long_url, click_count, created_at, expire_at
		FROM links WHERE owner_id = $1
		ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var (
			link     models.Link
			expireAt sql.NullTime
		)
		if err := rows.Scan(&link.ID, &link.OwnerID, &link.ShortCode, &link.LongURL,
			&link.ClickCount, &link.CreatedAt, &expireAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if expireAt.Valid {
			link.ExpireAt = expireAt.Time
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return links, nil
}

// LinkDeleteBatchByUser удаляет ссылки владельца и возвращает реально
// удалённые коды: чужие и несуществующие молча пропускаются, по ним
// вызывающему нечего инвалидировать.
func (p *PostgresStorage) LinkDeleteBatchByUser(ctx context.Context, ownerID int64, shortCodes []string) ([]string, error) {
	if ownerID <= 0 || len(shortCodes) == 0 {
		return nil, fmt.Errorf("%w: invalid delete request", models.ErrInvalidData)
	}

	rows, err := p.db.QueryContext(ctx, `
		DELETE FROM links
		WHERE owner_id = $1 AND short_code = ANY($2)
		RETURNING short_code`,
		ownerID, shortCodes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete links: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan deleted code: %w", err)
		}
		deleted = append(deleted, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return deleted, nil
}

func (p *PostgresStorage) ClickIncrement(ctx context.Context, shortCode string, delta int64) error {
	if shortCode == "" || delta <= 0 {
		return models.ErrInvalidData
	}

	_, err := p.db.ExecContext(ctx,
		"UPDATE links SET click_count = click_count + $2 WHERE short_code = $1",
		shortCode, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	return nil
}

func (p *PostgresStorage) VisitLogInsertBatch(ctx context.Context, visits []models.VisitLog) error {
	if len(visits) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO visit_logs (short_code, long_url, ip, user_agent, referer, visit_time)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range visits {
		if _, err := stmt.ExecContext(ctx, v.ShortCode, v.LongURL, v.IP, v.UserAgent, v.Referer, v.VisitTime); err != nil {
			return fmt.Errorf("failed to insert visit log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// VisitCountDaily считает переходы по дням за последние days суток.
// Владелец проверяется здесь же, чтобы не отдавать чужую статистику.
func (p *PostgresStorage) VisitCountDaily(ctx context.Context, shortCode string, ownerID int64, days int) ([]models.DailyClicks, error) {
	if shortCode == "" || days <= 0 {
		return nil, models.ErrInvalidData
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT to_char(date_trunc('day', v.visit_time), 'YYYY-MM-DD') AS day, count(*)
		FROM visit_logs v
		JOIN links l ON l.short_code = v.short_code
		WHERE v.short_code = $1
		  AND l.owner_id = $2
		  AND v.visit_time >= now() - make_interval(days => $3)
		GROUP BY day
		ORDER BY day`,
		shortCode, ownerID, days,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyClicks
	for rows.Next() {
		var dc models.DailyClicks
		if err := rows.Scan(&dc.Day, &dc.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan visit stats: %w", err)
		}
		stats = append(stats, dc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return stats, nil
}

func (p *PostgresStorage) UserCreate(ctx context.Context, user models.User) (models.User, error) {
	if user.Email == "" || user.PasswordHash == "" {
		return models.User{}, models.ErrInvalidData
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		user.Email, user.PasswordHash, user.Status, user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err, constraintUsersEmail) {
			return models.User{}, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		return models.User{}, fmt.Errorf("database error: %w", err)
	}

	return user, nil
}

func (p *PostgresStorage) UserGetByEmail(ctx context.Context, email string) (models.User, error) {
	if email == "" {
		return models.User{}, fmt.Errorf("%w: email must not be empty", models.ErrInvalidData)
	}

	var user models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, status, created_at
		FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Status, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user not found", models.ErrUnfound)
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (p *PostgresStorage) UserGetByID(ctx context.Context, id int64) (models.User, error) {
	if id <= 0 {
		return models.User{}, fmt.Errorf("%w: invalid user id", models.ErrInvalidData)
	}

	var user models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, status, created_at
		FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Status, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user not found", models.ErrUnfound)
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgErrCodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
