package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Search endpoints
	SearchHandler gin.HandlerFunc

	// Place endpoints
	DetailsHandler      gin.HandlerFunc
	GetPlaceByIDHandler gin.HandlerFunc
	NearbyHandler       gin.HandlerFunc
	ResolveHandler      gin.HandlerFunc
	AttachMediaHandler  gin.HandlerFunc

	// Index endpoints
	IndexInfoHandler    gin.HandlerFunc
	RefreshIndexHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from a PlacesHandler.
func NewHandlerBundle(h *PlacesHandler) *HandlerBundle {
	return &HandlerBundle{
		SearchHandler:       h.SearchHandler,
		DetailsHandler:      h.DetailsHandler,
		GetPlaceByIDHandler: h.GetPlaceByIDHandler,
		NearbyHandler:       h.NearbyHandler,
		ResolveHandler:      h.ResolveHandler,
		AttachMediaHandler:  h.AttachMediaHandler,
		IndexInfoHandler:    h.IndexInfoHandler,
		RefreshIndexHandler: h.RefreshIndexHandler,
		HealthHandler:       h.HealthHandler,
	}
}
