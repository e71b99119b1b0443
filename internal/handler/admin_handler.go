package handler

import (
	"net/http"

	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator выдаёт токен администратора по логину и паролю
type Authenticator interface {
	Login(username, password string) (string, error)
}

type AdminHandler struct {
	auth    Authenticator
	service service.LinkService
	logger  *zap.Logger
}

func NewAdminHandler(auth Authenticator, service service.LinkService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		auth:    auth,
		service: service,
		logger:  logger,
	}
}

// Login godoc
// @Summary Administrator login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} LoginResponse
// @Router /api/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "invalid_request",
		})
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		m := mapError(err)
		if m.status == http.StatusInternalServerError {
			h.logger.Error("Failed to issue admin token", zap.Error(err))
		} else {
			h.logger.Warn("Admin login rejected", zap.String("ip", c.ClientIP()))
		}
		c.JSON(m.status, LoginResponse{Success: false, Error: m.message})
		return
	}

	h.logger.Info("Admin logged in", zap.String("ip", c.ClientIP()))
	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
}

// ListLinks godoc
// @Summary List all links
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]models.Link
// @Failure 401 {object} ErrorResponse
// @Router /api/links [get]
func (h *AdminHandler) ListLinks(c *gin.Context) {
	links, err := h.service.ListLinks(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"links": links})
}

// DeleteLink godoc
// @Summary Delete a link
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug"
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{slug} [delete]
func (h *AdminHandler) DeleteLink(c *gin.Context) {
	slug := c.Param("slug")

	if err := h.service.DeleteLink(c.Request.Context(), slug); err != nil {
		logFailure(h.logger, "Failed to delete link", slug, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Link deleted successfully",
	})
}
