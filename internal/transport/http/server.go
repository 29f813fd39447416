package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pokechat/pokechat-server/internal/auth"
	"github.com/pokechat/pokechat-server/internal/config"
	"github.com/pokechat/pokechat-server/internal/core"
)

// NewServer builds the HTTP server: health probe, auth REST endpoints and
// the WebSocket upgrade for the chat channel.
func NewServer(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/healthz", healthHandler)

	handlers := NewAPIHandlers(authService, logger)
	api := router.Group("/api")
	api.POST("/register", handlers.Register)
	api.POST("/login", handlers.Login)
	api.GET("/me", AuthMiddleware(authService, logger), handlers.Me)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg.MessageRateLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
