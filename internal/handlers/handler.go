package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/realtime"
	"github.com/readyresponse/dispatch/internal/services"
	"github.com/readyresponse/dispatch/internal/types"
	"github.com/readyresponse/dispatch/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	svc     *services.Services
	hub     *realtime.Hub
	db      *gorm.DB
	origins []string
}

func NewHandler(svc *services.Services, hub *realtime.Hub, conn *gorm.DB, origins []string) *Handler {
	RegisterValidators()
	return &Handler{svc: svc, hub: hub, db: conn, origins: origins}
}

// currentUser aborts with 401 when the request carries no identity.
func currentUser(ctx *gin.Context) (types.AuthenticatedUser, bool) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return types.AuthenticatedUser{}, false
	}

	return user, true
}

// pathID writes a 400 and returns an error when the parameter is not an id.
func pathID(ctx *gin.Context, param, label string) (uint, error) {
	id, err := utils.GetPathID(ctx, param, label)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, err
	}

	return id, nil
}

// bindBody binds a JSON body but treats an empty body as the zero value so
// the service can run its role check first.
func bindBody(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return false
	}
	return true
}
