package routes

import (
	"time"

	"spotfinder/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSearchRoutes registers the search endpoint.
func RegisterSearchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/search", hb.SearchHandler)
}

// RegisterPlaceRoutes registers place lookup and resolution endpoints.
func RegisterPlaceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/places")
	{
		api.GET("/details", hb.DetailsHandler)
		api.GET("/nearby", hb.NearbyHandler)
		api.GET("/id/:id", hb.GetPlaceByIDHandler)
		api.POST("/resolve", hb.ResolveHandler)
		api.POST("/id/:id/media", hb.AttachMediaHandler)
	}
}

// RegisterIndexRoutes registers local index maintenance endpoints.
func RegisterIndexRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/index")
	{
		api.GET("/info", hb.IndexInfoHandler)
		api.POST("/refresh", hb.RefreshIndexHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterSearchRoutes(r, hb)
	RegisterPlaceRoutes(r, hb)
	RegisterIndexRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
