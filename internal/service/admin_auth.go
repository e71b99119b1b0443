package service

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/gated-shortener/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AdminSessionTTL время жизни токена администратора
const AdminSessionTTL = 24 * time.Hour

// AdminAuth выдаёт и проверяет bearer-токены администратора.
// Токен - JWT HS256 с subject = имя администратора.
type AdminAuth struct {
	username string
	password string
	secret   []byte
	clock    Clock
}

// NewAdminAuth создаёт сервис аутентификации. Если секрет подписи не задан,
// генерируется случайный: выданные токены перестанут действовать после перезапуска.
func NewAdminAuth(cfg config.AdminConfig, clock Clock) (*AdminAuth, error) {
	if clock == nil {
		clock = RealClock()
	}

	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
	}

	return &AdminAuth{
		username: cfg.Username,
		password: cfg.Password,
		secret:   secret,
		clock:    clock,
	}, nil
}

// Login сверяет учётные данные и выдаёт токен на 24 часа
func (a *AdminAuth) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	now := a.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   a.username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(AdminSessionTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken сообщает, действителен ли токен. Любая ошибка разбора,
// подписи или срока трактуется как отказ.
func (a *AdminAuth) VerifyToken(tokenString string) bool {
	_, err := a.parse(tokenString)
	return err == nil
}

func (a *AdminAuth) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(a.username)) != 1 {
		return nil, errors.New("unknown subject")
	}

	return claims, nil
}
