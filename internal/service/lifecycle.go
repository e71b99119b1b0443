package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/SergeiKhy/gated-shortener/internal/repository"
	"go.uber.org/zap"
)

// lifecycle общие правила жизни записи: загрузка, ленивое удаление
// просроченных и исчерпанных ссылок, учёт переходов.
type lifecycle struct {
	repo   repository.LinkRepository
	clock  Clock
	logger *zap.Logger
}

func (l *lifecycle) load(ctx context.Context, slug string) (*models.Link, error) {
	link, err := l.repo.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	return link, nil
}

// checkAlive удаляет запись, если срок истёк или лимит переходов исчерпан,
// и возвращает соответствующую ошибку Gone.
func (l *lifecycle) checkAlive(ctx context.Context, link *models.Link) error {
	var reason error
	switch {
	case link.IsExpired(l.clock.Now()):
		reason = ErrLinkExpired
	case link.QuotaExhausted():
		reason = ErrQuotaExhausted
	default:
		return nil
	}

	l.discard(ctx, link.Slug, reason)
	return reason
}

// discard удаляет мёртвую запись без повторов. Если удаление не удалось,
// запись будет снова найдена и удалена при следующем обращении.
func (l *lifecycle) discard(ctx context.Context, slug string, reason error) {
	err := l.repo.Delete(ctx, slug)
	if err != nil && !errors.Is(err, repository.ErrLinkNotFound) {
		l.logger.Warn("Failed to delete dead link",
			zap.String("slug", slug),
			zap.NamedError("reason", reason),
			zap.Error(err),
		)
		return
	}
	l.logger.Debug("Dead link removed", zap.String("slug", slug), zap.NamedError("reason", reason))
}

// countVisit увеличивает счётчик переходов, если у ссылки есть лимит.
// Без транзакций два параллельных перехода могут оба пройти проверку лимита.
func (l *lifecycle) countVisit(ctx context.Context, link *models.Link) error {
	if !link.HasQuota() {
		return nil
	}

	link.Visits++
	if err := l.repo.Put(ctx, link); err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}
