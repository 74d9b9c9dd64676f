package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/adapters/signal"
	"github.com/dkeye/VideoSync/internal/adapters/storage"
	"github.com/dkeye/VideoSync/internal/app/orch"
	"github.com/dkeye/VideoSync/internal/config"
)

// Stores are the persistence collaborators behind the REST endpoints.
type Stores struct {
	Profiles *storage.ProfileStore
	Current  *storage.ConfigStore
}

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, st Stores) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 365, HttpOnly: true})
	r.Use(sessions.Sessions("VideoSyncSessions", store))
	r.Use(ClientTokenMiddleware())

	pages := &pageHandler{root: cfg.StaticPath}
	r.Static("/static", cfg.StaticPath)
	r.Static("/videos", cfg.UploadPath)
	r.GET("/", pages.page("index.html"))
	r.GET("/admin", pages.page("admin.html"))
	r.GET("/choose", pages.page("choose.html"))
	r.GET("/tv", pages.tv)
	r.NoRoute(pages.fallback)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": o.Hub.Count()})
	})
	r.GET("/metrics", gin.WrapH(o.Metrics.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("uploads", cfg.UploadPath).Msg("router setup")

	ws := signal.NewSignalWSController(o, cfg)
	handleWS := func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Msg("ws endpoint hit")
		ws.HandleSignal(ctx, c)
	}
	r.GET("/socket", handleWS)

	api := r.Group("/api")
	api.GET("/ws", handleWS)
	api.POST("/choose", chooseScreen)

	up := &uploadHandler{
		dir:      cfg.UploadPath,
		maxBytes: cfg.MaxUploadBytes(),
		metrics:  o.Metrics,
	}
	api.POST("/upload", up.handle)

	ph := &profileHandler{profiles: st.Profiles, current: st.Current}
	api.GET("/profiles", ph.list)
	api.GET("/profiles/:name", ph.get)
	api.PUT("/profiles/:name", ph.put)
	api.DELETE("/profiles/:name", ph.delete)
	api.GET("/config", ph.getCurrent)
	api.PUT("/config", ph.putCurrent)

	return r
}
