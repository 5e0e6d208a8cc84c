package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig carries the router's ambient settings.
type RouterConfig struct {
	CORSOrigins []string
	Logger      zerolog.Logger
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RoleHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r.GET("/health", Health)

	api := r.Group("/api/v1")
	api.Use(ResolveRole())
	{
		api.GET("/health", Health)
		api.GET("/event-types", GetEventTypes)

		// ─── Modules ───
		api.GET("/modules", GetModules)
		api.POST("/modules", RequireAdmin(), CreateModule)
		moduleGroup := api.Group("/modules/:key")
		{
			moduleGroup.GET("", GetModule)
			moduleGroup.PUT("/screenshots/order", RequireAdmin(), ReorderScreenshots)
			moduleGroup.POST("/screenshots", RequireAdmin(), UploadScreenshot)
		}

		// ─── Screenshots ───
		shotGroup := api.Group("/screenshots/:id")
		{
			shotGroup.GET("", GetScreenshot)
			shotGroup.PATCH("", RequireAdmin(), UpdateScreenshot)
			shotGroup.DELETE("", RequireAdmin(), DeleteScreenshot)
			shotGroup.PUT("/asset", RequireAdmin(), ReplaceScreenshotAsset)
			shotGroup.GET("/image", GetScreenshotImage)
			shotGroup.GET("/annotated", GetAnnotatedScreenshot)

			// ─── Regions ───
			shotGroup.PUT("/events/:eventId", RequireAdmin(), UpsertRegion)
			shotGroup.DELETE("/events/:eventId", RequireAdmin(), DeleteRegion)
		}
	}

	return r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "Eventure"})
}
