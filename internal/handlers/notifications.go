package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetNotifications(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	list, err := h.svc.Notifications.List(ctx.Request.Context(), user)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (h *Handler) MarkNotificationRead(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	notificationID, err := pathID(ctx, "id", "Notification")
	if err != nil {
		return
	}

	notification, err := h.svc.Notifications.MarkRead(ctx.Request.Context(), user, notificationID)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, notification)
}

func (h *Handler) MarkAllNotificationsRead(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	updated, err := h.svc.Notifications.MarkAllRead(ctx.Request.Context(), user)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}
