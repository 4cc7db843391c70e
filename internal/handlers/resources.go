package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/services"
)

func (h *Handler) CreateResource(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.CreateResourceInput

	if !bindBody(ctx, &req) {
		return
	}

	resource, err := h.svc.Resources.Create(ctx.Request.Context(), user, req)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"resource": resource})
}

func (h *Handler) UpdateResourceStatus(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	resourceID, err := pathID(ctx, "id", "Resource")
	if err != nil {
		return
	}

	var req services.UpdateResourceStatusInput

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	resource, err := h.svc.Resources.UpdateStatus(ctx.Request.Context(), user, resourceID, req.Status)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"resource": resource})
}

func (h *Handler) ListResources(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	resources, err := h.svc.Resources.List(ctx.Request.Context(), user)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, resources)
}

func (h *Handler) ResourceDashboard(ctx *gin.Context) {
	resources, err := h.svc.Resources.Dashboard(ctx.Request.Context())

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":     len(resources),
		"resources": resources,
	})
}
