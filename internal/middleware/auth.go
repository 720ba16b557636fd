package middleware

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/lingodesk/quiz-service/internal/config"
	"github.com/lingodesk/quiz-service/internal/models"
)

// InitCasdoor configures the shared casdoor client. Call once at startup
// before mounting RequireAuth.
func InitCasdoor(cfg config.CasdoorConfig) {
	casdoorsdk.InitConfig(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
}

// RequireAuth validates the Bearer token and stores user_id and user_role
// in the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing authorization header",
			})
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid authorization header",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set("user_id", claims.User.Id)
		c.Set("user_role", roleFromClaims(claims))
		c.Next()
	}
}

// RequireRole rejects requests from users outside the given roles. Mount
// after RequireAuth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Forbidden - insufficient permissions",
			})
			return
		}
		role, ok := value.(models.UserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Forbidden - insufficient permissions",
			})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Forbidden - insufficient permissions",
		})
	}
}

// Casdoor carries the role in the user tag; unknown tags fall back to
// student, the least privileged role.
func roleFromClaims(claims *casdoorsdk.Claims) models.UserRole {
	switch models.UserRole(claims.User.Tag) {
	case models.RoleAdmin:
		return models.RoleAdmin
	case models.RoleTeacher:
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}
