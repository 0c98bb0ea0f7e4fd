package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"spotfinder/models"
	"spotfinder/services/identity"
	"spotfinder/services/providers"
	"spotfinder/services/search"
	"spotfinder/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlaceService is what the HTTP layer needs from the search service.
type PlaceService interface {
	Search(ctx context.Context, q search.Query) ([]models.Candidate, error)
	Details(ctx context.Context, provider, id string) (*models.Place, error)
	Place(ctx context.Context, id string) (*models.Place, error)
	Nearby(ctx context.Context, q providers.NearbyQuery) ([]search.NearbyResult, error)
	Resolve(ctx context.Context, c models.Candidate, coarse bool) (*identity.Resolution, error)
	AttachMedia(ctx context.Context, placeID, ref string) error
	IndexInfo(ctx context.Context) (models.IndexInfo, error)
	RefreshIndex(ctx context.Context) error
}

// PlacesHandler serves the place endpoints.
type PlacesHandler struct {
	svc    PlaceService
	logger *zap.Logger
}

// NewPlacesHandler creates a PlacesHandler.
func NewPlacesHandler(svc PlaceService, logger *zap.Logger) *PlacesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacesHandler{svc: svc, logger: logger}
}

// SearchHandler runs a place search and returns a GeoJSON FeatureCollection.
func (h *PlacesHandler) SearchHandler(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing required query parameter: query", "")
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}
	loc, err := optionalLocation(c)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid location", err.Error())
		return
	}

	results, err := h.svc.Search(c.Request.Context(), search.Query{
		Text:     query,
		Limit:    limit,
		Location: loc,
		Provider: c.DefaultQuery("provider", search.ProviderAll),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Debug("search served", zap.String("query", query), zap.Int("results", len(results)))
	c.JSON(http.StatusOK, toFeatureCollection(results))
}

// DetailsHandler returns the canonical place for a provider record.
func (h *PlacesHandler) DetailsHandler(c *gin.Context) {
	provider := c.Query("provider")
	id := c.Query("id")
	if provider == "" || id == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing required query parameters: provider, id", "")
		return
	}
	place, err := h.svc.Details(c.Request.Context(), provider, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// GetPlaceByIDHandler returns a stored place by canonical id.
func (h *PlacesHandler) GetPlaceByIDHandler(c *gin.Context) {
	place, err := h.svc.Place(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// NearbyHandler lists places around a point.
func (h *PlacesHandler) NearbyHandler(c *gin.Context) {
	loc, err := optionalLocation(c)
	if err != nil || loc == nil {
		utils.JSONError(c, http.StatusBadRequest, "Missing or invalid latitude/longitude", "")
		return
	}
	radius := 1000.0
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid radius", err.Error())
			return
		}
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}
	if limit == 0 {
		limit = 20
	}

	results, err := h.svc.Nearby(c.Request.Context(), providers.NearbyQuery{
		Location:     *loc,
		RadiusMeters: radius,
		Limit:        limit,
		Type:         c.Query("type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ResolveRequest is the body of POST /api/places/resolve.
type ResolveRequest struct {
	Name       string            `json:"name" binding:"required"`
	Address    string            `json:"address"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Source     string            `json:"source"`
	ProviderID string            `json:"providerId"`
	Coarse     bool              `json:"coarse"`
	Enrichment models.Enrichment `json:"enrichment"`
}

// ResolveHandler maps an externally derived candidate onto a canonical place.
func (h *PlacesHandler) ResolveHandler(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	// Local ids are canonical place ids and only come from the index itself.
	if strings.EqualFold(strings.TrimSpace(req.Source), models.SourceLocal) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid source", "source local cannot be resolved from outside")
		return
	}
	res, err := h.svc.Resolve(c.Request.Context(), models.Candidate{
		Name:       req.Name,
		Address:    req.Address,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Source:     req.Source,
		ProviderID: req.ProviderID,
		Enrichment: req.Enrichment,
	}, req.Coarse)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created() {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"place": res.Place, "match": res.Kind, "persisted": res.Persisted})
}

// MediaRequest is the body of POST /api/places/id/:id/media.
type MediaRequest struct {
	Ref string `json:"ref" binding:"required"`
}

// AttachMediaHandler links a media reference to a place.
func (h *PlacesHandler) AttachMediaHandler(c *gin.Context) {
	var req MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.svc.AttachMedia(c.Request.Context(), c.Param("id"), req.Ref); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Media attached"})
}

// IndexInfoHandler reports the local index state.
func (h *PlacesHandler) IndexInfoHandler(c *gin.Context) {
	info, err := h.svc.IndexInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RefreshIndexHandler compacts the local index.
func (h *PlacesHandler) RefreshIndexHandler(c *gin.Context) {
	if err := h.svc.RefreshIndex(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	info, err := h.svc.IndexInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// optionalLocation parses latitude and longitude; both or neither must be given.
func optionalLocation(c *gin.Context) (*models.LatLng, error) {
	rawLat, rawLon := c.Query("latitude"), c.Query("longitude")
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, err
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, err
	}
	loc := &models.LatLng{Latitude: lat, Longitude: lon}
	if !loc.Valid() {
		return nil, search.ErrInvalidLocation
	}
	return loc, nil
}
