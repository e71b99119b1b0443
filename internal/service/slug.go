package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"

	"github.com/SergeiKhy/gated-shortener/internal/repository"
)

const (
	slugLength    = 6
	minSlugLength = 3
	slugCharset   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SlugAllocator выбирает slug для новой ссылки и проверяет, что он свободен.
// Саму запись делает вызывающий через PutIfAbsent.
type SlugAllocator struct {
	repo    repository.LinkRepository
	retries int
	intn    func(n int) int
}

// NewSlugAllocator создаёт аллокатор. retries - число дополнительных попыток
// генерации при коллизии; 0 означает одну попытку.
func NewSlugAllocator(repo repository.LinkRepository, retries int) *SlugAllocator {
	return &SlugAllocator{
		repo:    repo,
		retries: retries,
		intn:    rand.Intn,
	}
}

// Allocate возвращает requested, если он корректен и свободен,
// иначе генерирует случайный slug.
func (a *SlugAllocator) Allocate(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		if err := ValidateSlug(requested); err != nil {
			return "", err
		}
		return requested, a.ensureFree(ctx, requested)
	}

	var err error
	for attempt := 0; attempt <= a.retries; attempt++ {
		slug := a.Generate()
		if err = a.ensureFree(ctx, slug); err == nil {
			return slug, nil
		}
		if !errors.Is(err, ErrSlugInUse) {
			return "", err
		}
	}
	return "", err
}

// Generate возвращает случайный slug из 6 символов [A-Za-z0-9]
func (a *SlugAllocator) Generate() string {
	b := make([]byte, slugLength)
	for i := range b {
		b[i] = slugCharset[a.intn(len(slugCharset))]
	}
	return string(b)
}

func (a *SlugAllocator) ensureFree(ctx context.Context, slug string) error {
	_, err := a.repo.Get(ctx, slug)
	switch {
	case err == nil:
		return ErrSlugInUse
	case errors.Is(err, repository.ErrLinkNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check slug: %w", err)
	}
}

// ValidateSlug проверяет формат выбранного пользователем slug
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidSlug, minSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: only letters, digits, '-' and '_' are allowed", ErrInvalidSlug)
	}
	return nil
}
