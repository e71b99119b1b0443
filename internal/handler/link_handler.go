package handler

import (
	"net/http"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	gate    service.AccessGate
	baseURL string
	siteKey string
	logger  *zap.Logger
}

func NewLinkHandler(
	service service.LinkService,
	gate service.AccessGate,
	baseURL string,
	siteKey string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service: service,
		gate:    gate,
		baseURL: baseURL,
		siteKey: siteKey,
		logger:  logger,
	}
}

// Shorten godoc
// @Summary Create a short link
// @Description Create a short link with optional slug, expiry, password and visit limit
// @Tags links
// @Accept json
// @Produce json
// @Param request body ShortenRequest true "Link creation request"
// @Success 200 {object} ShortenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/shorten [post]
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "invalid_request",
		})
		return
	}

	expiresAt, err := parseExpiry(req.Expiry)
	if err != nil {
		respondError(c, err)
		return
	}
	maxVisits, err := parseMaxVisits(req.MaxVisits)
	if err != nil {
		respondError(c, err)
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &models.CreateLinkInput{
		URL:       req.URL,
		Slug:      req.Slug,
		ExpiresAt: expiresAt,
		Password:  req.Password,
		MaxVisits: maxVisits,
		Token:     req.Token,
		RemoteIP:  c.ClientIP(),
	})
	if err != nil {
		h.logFailure("Failed to create link", req.Slug, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ShortenResponse{
		Shortened: service.ShortURL(h.origin(c), link.Slug),
	})
}

// Redirect godoc
// @Summary Follow a short link
// @Tags links
// @Produce html
// @Param slug path string true "Slug"
// @Success 302 {object} nil
// @Success 200 {string} string "Password page"
// @Failure 404 {string} string
// @Failure 410 {string} string
// @Router /{slug} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	slug := c.Param("slug")

	res, err := h.service.Resolve(c.Request.Context(), slug)
	if err != nil {
		h.logFailure("Failed to resolve link", slug, err)
		m := mapError(err)
		c.String(m.status, m.message)
		return
	}

	if res.Status == models.ResolvePasswordRequired {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		if err := renderPasswordPage(c.Writer, slug, h.siteKey); err != nil {
			h.logger.Error("Failed to render password page", zap.String("slug", slug), zap.Error(err))
		}
		return
	}

	c.Redirect(http.StatusFound, res.URL)
}

// Verify godoc
// @Summary Unlock a password-protected link
// @Tags links
// @Accept json
// @Produce json
// @Param slug path string true "Slug"
// @Param request body VerifyRequest true "Password and optional verification token"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /api/verify/{slug} [post]
func (h *LinkHandler) Verify(c *gin.Context) {
	slug := c.Param("slug")

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "invalid_request",
		})
		return
	}

	result, err := h.gate.Verify(c.Request.Context(), &models.VerifyInput{
		Slug:     slug,
		Password: req.Password,
		Token:    req.Token,
		RemoteIP: c.ClientIP(),
	})
	if err != nil {
		h.logFailure("Failed to verify link password", slug, err)
		respondError(c, err)
		return
	}

	if !result.Granted {
		c.JSON(http.StatusOK, VerifyResponse{Success: false, Error: "Wrong password"})
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{Success: true, URL: result.URL})
}

// origin базовый адрес для коротких ссылок: BASE_URL или адрес запроса
func (h *LinkHandler) origin(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

// logFailure пишет ожидаемые ошибки клиента на уровне Info, остальные - Error
func (h *LinkHandler) logFailure(msg, slug string, err error) {
	logFailure(h.logger, msg, slug, err)
}

func logFailure(logger *zap.Logger, msg, slug string, err error) {
	if mapError(err).status == http.StatusInternalServerError {
		logger.Error(msg, zap.String("slug", slug), zap.Error(err))
		return
	}
	logger.Info(msg, zap.String("slug", slug), zap.Error(err))
}
