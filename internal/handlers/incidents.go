package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/services"
)

type AssignResourceRequest struct {
	ResourceID uint `json:"resourceId"`
}

func (h *Handler) ReportIncident(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.ReportIncidentInput

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	incident, err := h.svc.Incidents.Report(ctx.Request.Context(), user, req)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"incident": incident})
}

func (h *Handler) ListIncidents(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	incidents, err := h.svc.Incidents.List(ctx.Request.Context(), user)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":     len(incidents),
		"incidents": incidents,
	})
}

func (h *Handler) AssignResource(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	incidentID, err := pathID(ctx, "id", "Incident")
	if err != nil {
		return
	}

	var req AssignResourceRequest

	if !bindBody(ctx, &req) {
		return
	}

	result, err := h.svc.Incidents.AssignResource(ctx.Request.Context(), user, incidentID, req.ResourceID)

	if err != nil {
		respondError(ctx, err, stateErrorsAsBadRequest)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incident": result.Incident,
		"resource": result.Resource,
	})
}

func (h *Handler) ResolveIncident(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	incidentID, err := pathID(ctx, "id", "Incident")
	if err != nil {
		return
	}

	result, err := h.svc.Incidents.ResolveIncident(ctx.Request.Context(), user, incidentID)

	if err != nil {
		respondError(ctx, err, stateErrorsAsBadRequest)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incident":          result.Incident,
		"releasedResources": result.ReleasedResources,
	})
}
