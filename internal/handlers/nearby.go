package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/services"
	"github.com/readyresponse/dispatch/internal/utils"
)

func (h *Handler) Nearby(ctx *gin.Context) {
	lat, err := utils.GetQueryFloat(ctx, "lat", nil)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lng, err := utils.GetQueryFloat(ctx, "lng", nil)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defaultRadius := services.DefaultNearbyRadiusKm
	radius, err := utils.GetQueryFloat(ctx, "radius", &defaultRadius)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.Nearby.Find(ctx.Request.Context(), lat, lng, radius)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
