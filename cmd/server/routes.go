package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/soundcue/soundcue/internal/db"
	"github.com/soundcue/soundcue/internal/engine"
	"github.com/soundcue/soundcue/internal/http/api"
	"github.com/soundcue/soundcue/internal/http/api/admin/endpoints"
	"github.com/soundcue/soundcue/internal/spotify"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, player *spotify.Client, eng *engine.Engine) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		endpoints.AuthPublicModule(env.SecretKey, store),
		endpoints.SpotifyCallbackModule(env.SecretKey, store, player),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
	},
		endpoints.AuthSessionModule(env.SecretKey, store),
		endpoints.SpotifyLinkModule(env.SecretKey, store, player),
		endpoints.ScheduleModule(store, eng),
	)
}
