package handler

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/gated-shortener/internal/middleware"
	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig параметры HTTP-слоя
type RouterConfig struct {
	BaseURL          string
	TurnstileSiteKey string
}

// AdminAuthority выдаёт и проверяет токены администратора
type AdminAuthority interface {
	Authenticator
	middleware.TokenVerifier
}

func NewRouter(
	linkService service.LinkService,
	accessGate service.AccessGate,
	adminAuth AdminAuthority,
	cfg RouterConfig,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))

	linkHandler := NewLinkHandler(linkService, accessGate, cfg.BaseURL, cfg.TurnstileSiteKey, logger)
	adminHandler := NewAdminHandler(adminAuth, linkService, logger)

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck(linkService))

		api.POST("/shorten", linkHandler.Shorten)
		api.POST("/verify/:slug", linkHandler.Verify)
		api.POST("/admin/login", adminHandler.Login)

		admin := api.Group("", middleware.RequireAdmin(adminAuth))
		admin.GET("/links", adminHandler.ListLinks)
		admin.DELETE("/links/:slug", adminHandler.DeleteLink)
	}

	router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// Редирект (корневой путь)
	router.GET("/:slug", linkHandler.Redirect)

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Method not allowed",
			Code:  "method_not_allowed",
		})
	})
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "Not found",
				Code:  "not_found",
			})
			return
		}
		c.String(http.StatusNotFound, "Link not found")
	})

	return router
}
