package middleware

import (
	"net/http"
	"strings"

	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Roles carried in the JWT role claim.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*utils.Claims, error)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", err.Error()))
			return
		}

		// Set user information in the context for downstream handlers
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the user role (from JWT claims) is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("userRole")
		if !exists {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "User role not found in token claims", ""))
			return
		}

		roleStr, ok := userRole.(string)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "User role in token is not a string", ""))
			return
		}

		for _, r := range allowedRoles {
			if strings.EqualFold(roleStr, r) {
				c.Next()
				return
			}
		}

		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource", "required roles: "+strings.Join(allowedRoles, ", ")))
	}
}
