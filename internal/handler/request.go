package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/SergeiKhy/gated-shortener/internal/service"
)

// Форматы срока действия, которые присылает форма: datetime-local без зоны
var localExpiryLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

type ShortenRequest struct {
	URL       string          `json:"url"`
	Slug      string          `json:"slug"`
	Expiry    json.RawMessage `json:"expiry"`
	Password  string          `json:"password"`
	MaxVisits json.RawMessage `json:"maxVisits"`
	Token     string          `json:"token"`
}

type ShortenResponse struct {
	Shortened string `json:"shortened"`
}

type VerifyRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

type VerifyResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

// parseExpiry принимает миллисекунды Unix, RFC 3339 или datetime-local
// (в часовом поясе сервера). Пустое значение означает бессрочную ссылку.
func parseExpiry(raw json.RawMessage) (*time.Time, error) {
	if isEmptyJSON(raw) {
		return nil, nil
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		t := time.UnixMilli(int64(ms))
		return &t, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: unsupported format", service.ErrInvalidExpiry)
	}
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	for _, layout := range localExpiryLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%w: cannot parse %q", service.ErrInvalidExpiry, s)
}

// parseMaxVisits принимает число или числовую строку
func parseMaxVisits(raw json.RawMessage) (*int, error) {
	if isEmptyJSON(raw) {
		return nil, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, service.ErrInvalidQuota
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, service.ErrInvalidQuota
		}
	}

	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return nil, service.ErrInvalidQuota
	}

	v := int(n)
	return &v, nil
}
