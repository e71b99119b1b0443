package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TurnstileVerifyURL адрес проверки токенов Cloudflare Turnstile
const TurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// HumanVerifier внешняя проверка, что запрос отправил человек
type HumanVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) error
}

// NoopVerifier используется, когда секрет Turnstile не задан
type NoopVerifier struct{}

func (NoopVerifier) Enabled() bool { return false }

func (NoopVerifier) Verify(context.Context, string, string) error { return nil }

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// TurnstileVerifier проверяет токены через siteverify
type TurnstileVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewTurnstileVerifier создаёт проверку. Пустой endpoint означает боевой адрес Cloudflare.
func NewTurnstileVerifier(secret, endpoint string, timeout time.Duration, logger *zap.Logger) *TurnstileVerifier {
	if endpoint == "" {
		endpoint = TurnstileVerifyURL
	}
	return &TurnstileVerifier{
		secret:   secret,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (v *TurnstileVerifier) Enabled() bool {
	return v.secret != ""
}

// Verify возвращает nil только при success=true. Недоступность сервиса
// считается отказом.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("Turnstile request failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("Turnstile returned unexpected status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	if !result.Success {
		v.logger.Info("Turnstile rejected token", zap.Strings("error_codes", result.ErrorCodes))
		return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(result.ErrorCodes, ","))
	}

	return nil
}

// checkHuman требует токен, только если проверка включена
func checkHuman(ctx context.Context, verifier HumanVerifier, token, remoteIP string) error {
	if !verifier.Enabled() {
		return nil
	}
	if token == "" {
		return ErrVerificationRequired
	}
	if err := verifier.Verify(ctx, token, remoteIP); err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	return nil
}
