package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/captainclaw/internal/api/chat"
	"github.com/liliang-cn/captainclaw/internal/api/middleware"
	"github.com/liliang-cn/captainclaw/internal/api/workspace"
	"github.com/liliang-cn/captainclaw/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
	MaxUploadMB  int64
}

// Services bundles the handlers' dependencies
type Services struct {
	Projects *service.ProjectService
	Files    *service.FileService
	Chat     *service.ChatService
	Export   *service.ExportService
	Search   *service.SearchService
}

// SetupRouter sets up the Gin router
func SetupRouter(services Services, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	if cfg.MaxUploadMB > 0 {
		// multipart parts above this size spill to temp files
		r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "CaptainClaw API"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.Auth(cfg.APIKey))

	workspace.NewHandler(services.Projects, services.Files, services.Export, services.Search).RegisterRoutes(apiGroup)
	chat.NewHandler(services.Chat).RegisterRoutes(apiGroup)

	return r
}
