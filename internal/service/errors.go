package service

import (
	"errors"
	"fmt"

	"github.com/SergeiKhy/gated-shortener/internal/repository"
)

// Ошибки валидации
var (
	ErrInvalidURL    = errors.New("invalid URL")
	ErrInvalidSlug   = errors.New("invalid slug")
	ErrInvalidQuota  = errors.New("max visits must be a positive integer")
	ErrInvalidExpiry = errors.New("expiry must be in the future")
)

// ErrSlugInUse slug уже занят другой записью
var ErrSlugInUse = errors.New("slug already in use")

var ErrLinkNotFound = repository.ErrLinkNotFound

// ErrLinkGone ссылка была, но больше не обслуживается.
// Конкретная причина - ErrLinkExpired или ErrQuotaExhausted.
var (
	ErrLinkGone       = errors.New("link gone")
	ErrLinkExpired    = fmt.Errorf("%w: expired", ErrLinkGone)
	ErrQuotaExhausted = fmt.Errorf("%w: visit limit reached", ErrLinkGone)
)

// Ошибки проверки человека
var (
	ErrVerificationRequired = errors.New("human verification required")
	ErrVerificationFailed   = errors.New("human verification failed")
)

var ErrInvalidCredentials = errors.New("invalid username or password")
