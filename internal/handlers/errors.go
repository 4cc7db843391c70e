package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/apperrors"
)

// respondError writes {"error": message} with the status for the error's
// kind. overrides remaps kinds for endpoints with their own contract.
func respondError(ctx *gin.Context, err error, overrides map[apperrors.Kind]int) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(err)

	if code, ok := overrides[kind]; ok {
		status = code
	}

	if kind == apperrors.KindInternal {
		log.Printf("%s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
	}

	ctx.JSON(status, gin.H{"error": apperrors.Message(err)})
}

// stateErrorsAsBadRequest is the assign/resolve contract: a missing
// incident or a lost race is a 400.
var stateErrorsAsBadRequest = map[apperrors.Kind]int{
	apperrors.KindNotFound: http.StatusBadRequest,
	apperrors.KindConflict: http.StatusBadRequest,
}
