package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SearchUsers(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	users, err := h.svc.Users.Search(ctx.Request.Context(), user, ctx.Query("query"))

	if err != nil {
		respondError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, users)
}
