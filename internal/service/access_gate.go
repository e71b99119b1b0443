package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/SergeiKhy/gated-shortener/internal/repository"
	"go.uber.org/zap"
)

// AccessGate обменивает верный пароль на адрес назначения
type AccessGate interface {
	Verify(ctx context.Context, input *models.VerifyInput) (*models.VerifyResult, error)
}

type accessGate struct {
	lifecycle
	verifier HumanVerifier
	timeout  time.Duration
}

// NewAccessGate создаёт проверку пароля. Параметры времени и таймаута
// берутся из того же LinkServiceConfig, что и у сервиса ссылок.
func NewAccessGate(
	repo repository.LinkRepository,
	verifier HumanVerifier,
	cfg LinkServiceConfig,
	logger *zap.Logger,
) AccessGate {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if verifier == nil {
		verifier = NoopVerifier{}
	}

	return &accessGate{
		lifecycle: lifecycle{
			repo:   repo,
			clock:  cfg.Clock,
			logger: logger,
		},
		verifier: verifier,
		timeout:  cfg.RequestTimeout,
	}
}

// Verify сверяет пароль ссылки. Неверный пароль не меняет запись
// и не раскрывает адрес.
func (g *accessGate) Verify(ctx context.Context, input *models.VerifyInput) (*models.VerifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	link, err := g.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	if err := checkHuman(ctx, g.verifier, input.Token, input.RemoteIP); err != nil {
		return nil, err
	}

	if err := g.checkAlive(ctx, link); err != nil {
		return nil, err
	}

	var stored string
	if link.Password != nil {
		stored = *link.Password
	}
	if subtle.ConstantTimeCompare([]byte(input.Password), []byte(stored)) != 1 {
		g.logger.Info("Wrong link password", zap.String("slug", input.Slug))
		return &models.VerifyResult{Granted: false}, nil
	}

	if err := g.countVisit(ctx, link); err != nil {
		return nil, err
	}

	return &models.VerifyResult{Granted: true, URL: link.URL}, nil
}
