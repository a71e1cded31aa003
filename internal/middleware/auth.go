package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pageza/pantrypal/backend/internal/models"
)

const userIDKey = "user_id"

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*models.TokenClaims, error)
}

// UserFinder loads the account a token was issued to.
type UserFinder interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token for an
// existing user and stores the user id in the context.
func AuthMiddleware(validator TokenValidator, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		if _, err := users.GetUser(c.Request.Context(), claims.UserID); err != nil {
			if models.IsKind(err, models.KindNotFound) {
				abort(c, http.StatusUnauthorized, "User not found")
				return
			}
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load token user")
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user's id set by AuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Message: message})
}
