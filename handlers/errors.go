package handlers

import (
	"errors"
	"net/http"

	"spotfinder/services/identity"
	"spotfinder/services/providers"
	"spotfinder/services/search"
	"spotfinder/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, search.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Place not found", err.Error())
	case errors.Is(err, search.ErrUnknownProvider),
		errors.Is(err, search.ErrInvalidLocation),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrEmptyMediaRef),
		errors.Is(err, identity.ErrInvalidCandidate):
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, providers.ErrProviderUnavailable):
		utils.JSONError(c, http.StatusServiceUnavailable, "Provider not configured", err.Error())
	case errors.Is(err, providers.ErrProviderCallFailed):
		utils.JSONError(c, http.StatusBadGateway, "Provider request failed", err.Error())
	default:
		getLogger(c).Error("unhandled service error", zap.String("path", c.FullPath()), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "Please try again later")
	}
}
