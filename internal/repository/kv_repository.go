package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "link:"
	scanCount = 100
	// Redis удаляет просроченные ключи сам, но не раньше, чем сервис успеет
	// ответить 410 на обращение к ним.
	expiryGrace = 24 * time.Hour
)

type kvRepository struct {
	redis *RedisDB
	now   func() time.Time
}

// NewKVRepository создаёт хранилище ссылок поверх Redis.
// Запись хранится как JSON под ключом link:<slug>.
func NewKVRepository(redis *RedisDB) LinkRepository {
	return &kvRepository{redis: redis, now: time.Now}
}

func (r *kvRepository) Get(ctx context.Context, slug string) (*models.Link, error) {
	data, err := r.redis.Client.Get(ctx, r.key(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return decodeLink(slug, data)
}

func (r *kvRepository) Put(ctx context.Context, link *models.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	if err := r.redis.Client.Set(ctx, r.key(link.Slug), data, r.ttl(link)).Err(); err != nil {
		return fmt.Errorf("failed to put link: %w", err)
	}

	return nil
}

func (r *kvRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	data, err := json.Marshal(link)
	if err != nil {
		return false, fmt.Errorf("failed to marshal link: %w", err)
	}

	ok, err := r.redis.Client.SetNX(ctx, r.key(link.Slug), data, r.ttl(link)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create link: %w", err)
	}

	return ok, nil
}

func (r *kvRepository) Delete(ctx context.Context, slug string) error {
	n, err := r.redis.Client.Del(ctx, r.key(slug)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if n == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *kvRepository) List(ctx context.Context) ([]*models.Link, error) {
	var keys []string
	iter := r.redis.Client.Scan(ctx, 0, keyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan links: %w", err)
	}

	links := make([]*models.Link, 0, len(keys))
	for start := 0; start < len(keys); start += scanCount {
		end := min(start+scanCount, len(keys))
		batch := keys[start:end]

		values, err := r.redis.Client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load links: %w", err)
		}

		for i, value := range values {
			// Ключ мог быть удалён между SCAN и MGET
			raw, ok := value.(string)
			if !ok {
				continue
			}
			link, err := decodeLink(strings.TrimPrefix(batch[i], keyPrefix), []byte(raw))
			if err != nil {
				continue
			}
			links = append(links, link)
		}
	}

	return links, nil
}

func (r *kvRepository) Ping(ctx context.Context) error {
	return r.redis.Client.Ping(ctx).Err()
}

func (r *kvRepository) key(slug string) string {
	return keyPrefix + slug
}

// ttl срок жизни ключа в Redis; 0 - без срока
func (r *kvRepository) ttl(link *models.Link) time.Duration {
	if link.ExpiresAt == nil {
		return 0
	}
	ttl := link.ExpiresAt.Sub(r.now())
	if ttl < 0 {
		ttl = 0
	}
	return ttl + expiryGrace
}

func decodeLink(slug string, data []byte) (*models.Link, error) {
	var link models.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}
	link.Slug = slug
	return &link, nil
}
