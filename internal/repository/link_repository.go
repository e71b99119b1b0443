package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound = errors.New("link not found")
)

// LinkRepository хранилище записей ссылок по ключу slug.
// Транзакции между ключами не предполагаются.
type LinkRepository interface {
	Get(ctx context.Context, slug string) (*models.Link, error)
	// Put безусловно записывает запись (upsert)
	Put(ctx context.Context, link *models.Link) error
	// PutIfAbsent записывает запись, только если ключ свободен.
	// Возвращает false, если запись с таким slug уже есть.
	PutIfAbsent(ctx context.Context, link *models.Link) (bool, error)
	Delete(ctx context.Context, slug string) error
	List(ctx context.Context) ([]*models.Link, error)
	Ping(ctx context.Context) error
}

type linkRepository struct {
	db *PostgresDB
}

// NewLinkRepository создаёт хранилище ссылок поверх PostgreSQL
func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `slug, url, created_at, expires_at, password, max_visits, visits`

func (r *linkRepository) Get(ctx context.Context, slug string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE slug = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) Put(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			url = EXCLUDED.url,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			password = EXCLUDED.password,
			max_visits = EXCLUDED.max_visits,
			visits = EXCLUDED.visits
	`

	if _, err := r.db.Pool.Exec(ctx, query, linkArgs(link)...); err != nil {
		return fmt.Errorf("failed to put link: %w", err)
	}

	return nil
}

func (r *linkRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING
	`

	result, err := r.db.Pool.Exec(ctx, query, linkArgs(link)...)
	if err != nil {
		return false, fmt.Errorf("failed to create link: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *linkRepository) Delete(ctx context.Context, slug string) error {
	query := `DELETE FROM links WHERE slug = $1`

	result, err := r.db.Pool.Exec(ctx, query, slug)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) List(ctx context.Context) ([]*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []*models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Ping(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

func linkArgs(link *models.Link) []any {
	return []any{
		link.Slug,
		link.URL,
		link.CreatedAt,
		link.ExpiresAt,
		link.Password,
		link.MaxVisits,
		link.Visits,
	}
}

func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.Slug,
		&link.URL,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.Password,
		&link.MaxVisits,
		&link.Visits,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}
