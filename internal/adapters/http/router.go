package http

import (
	"github.com/chillflicks/chillflicks/internal/adapters/signal"
	"github.com/chillflicks/chillflicks/internal/auth"
	"github.com/chillflicks/chillflicks/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(cfg *config.Config, h *Handlers, authService *auth.Service, ws *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	store := cookie.NewStore([]byte(cfg.CookieSecret))
	r.Use(sessions.Sessions("ChillflicksSession", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)

	authed := r.Group("/", JWTAuth(authService))
	authed.GET("/profile", h.Profile)
	authed.POST("/rooms", h.CreateRoom)
	authed.GET("/rooms/:code", h.GetRoom)
	authed.PUT("/rooms/:code", h.UpdateRoom)
	authed.GET("/sessions", h.LiveRooms)
	authed.GET("/messages/:code", h.GetMessages)
	authed.POST("/messages/:code", h.PostMessage)

	authed.GET("/ws", func(c *gin.Context) {
		ws.HandleSignal(c)
	})

	return r
}
