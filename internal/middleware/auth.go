package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/auth"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

// bearerToken reads the Authorization header, falling back to ?token= for
// websocket clients that cannot set headers.
func bearerToken(ctx *gin.Context) (string, string) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		if token := ctx.Query("token"); token != "" {
			return token, ""
		}
		return "", "Authorization token is required"
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Authorization header format must be Bearer {token}"
	}

	return parts[1], ""
}

func AuthMiddleware(conn *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, problem := bearerToken(ctx)

		if problem != "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		claims, err := auth.VerifyJWT(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		var user models.User

		if err := conn.WithContext(ctx.Request.Context()).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		// The stored role wins over the token's so role changes apply immediately.
		ctx.Set(types.ContextUserKey, types.AuthenticatedUser{
			ID:   user.ID,
			Name: user.Name,
			Role: user.Role,
		})
		ctx.Next()
	}
}
