package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/coreadability/coreadability-api/internal/config"
	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/handler"
	"github.com/coreadability/coreadability-api/internal/middleware"
)

type routerDeps struct {
	cfg           *config.Config
	isProduction  bool
	authMW        *middleware.AuthMiddleware
	rateLimiter   *middleware.RateLimiter
	screenHandler *handler.ScreenTimeHandler
	parentHandler *handler.ParentHandler
	genreHandler  *handler.GenreHandler
	chatHandler   *handler.ChatHandler
	wsHandler     *handler.WSHandler
	ready         func(ctx context.Context) error
}

func setupRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	// c.ClientIP() feeds the rate limiter, so proxies are only trusted locally in development
	if d.isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Warn().Err(err).Msg("failed to set trusted proxies")
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Warn().Err(err).Msg("failed to set trusted proxies")
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if d.ready != nil {
			if err := d.ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(d.authMW.RequireAuth(false))
	{
		api.GET("/genres", d.genreHandler.ListGenres)

		child := api.Group("")
		child.Use(middleware.RequireRole(entity.RoleChild))
		{
			me := child.Group("/me")
			{
				me.GET("/favorite-genres", d.genreHandler.GetFavorites)
				me.PUT("/favorite-genres", d.genreHandler.SetFavorites)
			}

			screen := child.Group("/screen-time")
			{
				screen.GET("/status", d.screenHandler.Status)
				screen.POST("/session/start", d.screenHandler.StartSession)
				screen.POST("/session/heartbeat", d.screenHandler.Heartbeat)
				screen.POST("/session/end", d.screenHandler.EndSession)
			}

			recs := child.Group("/recommendations")
			{
				recs.POST("/turn", d.genreHandler.Turn)
				recs.POST("/select", d.genreHandler.Select)
				recs.GET("/random", d.genreHandler.Random)
			}

			child.POST("/chat",
				d.rateLimiter.LimitByAccount(middleware.ChatRateLimitConfig(d.cfg.Chat.RateLimitPerMin)),
				d.chatHandler.Ask,
			)
		}

		api.GET("/parents/children", middleware.RequireRole(entity.RoleParent), d.parentHandler.ListChildren)

		parents := api.Group("/parents/children/:id")
		parents.Use(
			middleware.RequireRole(entity.RoleParent),
			middleware.ExtractUintParam("id", middleware.ContextChildID),
		)
		{
			parents.PUT("/time-limit", d.parentHandler.UpdateTimeLimit)
			parents.POST("/usage/reset", d.parentHandler.ResetUsage)
			parents.GET("/status", d.parentHandler.ChildStatus)
			parents.GET("/usage", d.parentHandler.UsageReport)
			parents.GET("/blocked-genres", d.parentHandler.ListBlockedGenres)
			parents.POST("/blocked-genres", d.parentHandler.BlockGenre)
			parents.DELETE("/blocked-genres/:genreId",
				middleware.ExtractUintParam("genreId", middleware.ContextGenreID),
				d.parentHandler.UnblockGenre,
			)
		}
	}

	// browsers cannot set headers on a websocket handshake, so the token may come in the query
	router.GET("/ws/screen-time",
		d.authMW.RequireAuth(true),
		middleware.RequireRole(entity.RoleChild),
		d.wsHandler.ScreenTime,
	)

	return router
}
