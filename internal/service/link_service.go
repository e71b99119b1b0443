package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/SergeiKhy/gated-shortener/internal/repository"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 5 * time.Second

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	Resolve(ctx context.Context, slug string) (*models.Resolution, error)
	ListLinks(ctx context.Context) ([]*models.Link, error)
	DeleteLink(ctx context.Context, slug string) error
	// Sweep удаляет все просроченные и исчерпанные записи
	Sweep(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// LinkServiceConfig параметры сервиса ссылок
type LinkServiceConfig struct {
	RequestTimeout time.Duration
	SlugRetries    int
	Clock          Clock
}

type linkService struct {
	lifecycle
	allocator *SlugAllocator
	verifier  HumanVerifier
	timeout   time.Duration
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	repo repository.LinkRepository,
	verifier HumanVerifier,
	cfg LinkServiceConfig,
	logger *zap.Logger,
) LinkService {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if verifier == nil {
		verifier = NoopVerifier{}
	}

	return &linkService{
		lifecycle: lifecycle{
			repo:   repo,
			clock:  cfg.Clock,
			logger: logger,
		},
		allocator: NewSlugAllocator(repo, cfg.SlugRetries),
		verifier:  verifier,
		timeout:   cfg.RequestTimeout,
	}
}

// CreateLink создаёт новую короткую ссылку. Существующая запись
// никогда не перезаписывается.
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if err := validateURL(input.URL); err != nil {
		return nil, err
	}

	if input.MaxVisits != nil && *input.MaxVisits <= 0 {
		return nil, ErrInvalidQuota
	}

	now := s.clock.Now()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}

	if input.Slug != "" {
		if err := ValidateSlug(input.Slug); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := checkHuman(ctx, s.verifier, input.Token, input.RemoteIP); err != nil {
		return nil, err
	}

	slug, err := s.allocator.Allocate(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		Slug:      slug,
		URL:       input.URL,
		CreatedAt: now,
		ExpiresAt: input.ExpiresAt,
		MaxVisits: input.MaxVisits,
		Visits:    0,
	}
	if input.Password != "" {
		password := input.Password
		link.Password = &password
	}

	created, err := s.repo.PutIfAbsent(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}
	if !created {
		// Slug заняли между проверкой и записью
		return nil, ErrSlugInUse
	}

	s.logger.Info("Link created",
		zap.String("slug", link.Slug),
		zap.Bool("password", link.HasPassword()),
		zap.Bool("expires", link.ExpiresAt != nil),
		zap.Bool("quota", link.HasQuota()),
	)

	return link, nil
}

// Resolve обрабатывает переход по короткой ссылке.
// Ссылки с паролем не раскрывают адрес и не считают переход:
// счётчик увеличивает только успешная проверка пароля.
func (s *linkService) Resolve(ctx context.Context, slug string) (*models.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	link, err := s.load(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.checkAlive(ctx, link); err != nil {
		return nil, err
	}

	if link.HasPassword() {
		return &models.Resolution{Status: models.ResolvePasswordRequired}, nil
	}

	if err := s.countVisit(ctx, link); err != nil {
		return nil, err
	}

	return &models.Resolution{Status: models.ResolveRedirect, URL: link.URL}, nil
}

// ListLinks возвращает все записи хранилища
func (s *linkService) ListLinks(ctx context.Context) ([]*models.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// DeleteLink удаляет ссылку по slug
func (s *linkService) DeleteLink(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Delete(ctx, slug); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return fmt.Errorf("failed to delete link: %w", err)
	}

	s.logger.Info("Link deleted", zap.String("slug", slug))
	return nil
}

func (s *linkService) Sweep(ctx context.Context) (int, error) {
	links, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list links: %w", err)
	}

	removed := 0
	for _, link := range links {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if err := s.checkAlive(ctx, link); err != nil {
			removed++
		}
	}
	return removed, nil
}

func (s *linkService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// validateURL принимает только абсолютные URL с хостом
func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// ShortURL собирает короткую ссылку из базового адреса и slug
func ShortURL(baseURL, slug string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + slug
}
