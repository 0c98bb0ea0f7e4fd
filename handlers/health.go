package handlers

import (
	"net/http"

	"spotfinder/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the last health snapshot together with the local index size.
func (h *PlacesHandler) HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	body := gin.H{
		"status":    "ok",
		"services":  status.Services,
		"checkedAt": status.CheckedAt,
	}
	if !status.Healthy() {
		body["status"] = "degraded"
	}
	if info, err := h.svc.IndexInfo(c.Request.Context()); err == nil {
		body["indexDocuments"] = info.DocCount
	}
	c.JSON(http.StatusOK, body)
}
