package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Порядок важен: более узкие ошибки раньше общих
var errorMappings = []errorMapping{
	{service.ErrInvalidURL, http.StatusBadRequest, "invalid_url", "Invalid URL format"},
	{service.ErrInvalidSlug, http.StatusBadRequest, "invalid_slug", "Custom slug must be at least 3 characters of letters, digits, '-' or '_'"},
	{service.ErrInvalidQuota, http.StatusBadRequest, "invalid_max_visits", "Max visits must be a positive integer"},
	{service.ErrInvalidExpiry, http.StatusBadRequest, "invalid_expiry", "Expiry must be in the future"},
	{service.ErrSlugInUse, http.StatusBadRequest, "slug_in_use", "This slug is already in use"},
	{service.ErrVerificationRequired, http.StatusBadRequest, "verification_required", "Please complete the human verification"},
	{service.ErrVerificationFailed, http.StatusBadRequest, "verification_failed", "Human verification failed"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password"},
	{service.ErrLinkNotFound, http.StatusNotFound, "not_found", "Link not found"},
	{service.ErrLinkExpired, http.StatusGone, "expired", "Link has expired"},
	{service.ErrQuotaExhausted, http.StatusGone, "visit_limit_reached", "Link has reached its visit limit"},
	{service.ErrLinkGone, http.StatusGone, "gone", "Link is no longer available"},
}

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "Internal server error",
}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m
		}
	}
	return internalError
}

// respondError пишет JSON-ошибку. Детали внутренних ошибок наружу не уходят.
func respondError(c *gin.Context, err error) {
	m := mapError(err)
	c.AbortWithStatusJSON(m.status, ErrorResponse{
		Error: m.message,
		Code:  m.code,
	})
}
