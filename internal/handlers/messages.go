package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/services"
	"github.com/readyresponse/dispatch/internal/utils"
)

func (h *Handler) SendMessage(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.SendMessageInput

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	message, err := h.svc.Messages.Send(ctx.Request.Context(), user, req)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusCreated, message)
}

func (h *Handler) GetMessages(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	incidentID, err := utils.GetOptionalQueryID(ctx, "incidentId")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.svc.Messages.List(ctx.Request.Context(), user, incidentID)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func (h *Handler) MarkMessagesRead(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	updated, err := h.svc.Messages.MarkAsRead(ctx.Request.Context(), user)

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Messages marked as read", "updated": updated})
}

func (h *Handler) DeleteMessage(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	messageID, err := pathID(ctx, "id", "Message")
	if err != nil {
		return
	}

	if err := h.svc.Messages.Delete(ctx.Request.Context(), user, messageID); err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}
