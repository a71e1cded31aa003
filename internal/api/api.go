package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/pantrypal/backend/internal/middleware"
	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

// Services are the collaborators the HTTP handlers delegate to.
type Services struct {
	Users   service.IUserService
	Recipes service.IRecipeService
	Contact service.IContactService
	Tokens  middleware.TokenValidator
	Storage storage.Storage
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PantryPal API is running",
	})
}

// RegisterRoutes registers all API routes under /api.
func RegisterRoutes(router *gin.Engine, svc Services) {
	auth := middleware.AuthMiddleware(svc.Tokens, svc.Users)

	apiGroup := router.Group("/api")
	NewAuthHandler(svc.Users).RegisterRoutes(apiGroup)
	NewProfileHandler(svc.Users, svc.Recipes, svc.Storage, auth).RegisterRoutes(apiGroup)
	NewRecipeHandler(svc.Recipes, svc.Storage, auth).RegisterRoutes(apiGroup)
	NewContactHandler(svc.Contact).RegisterRoutes(apiGroup)
}

// currentUser returns the authenticated user id or answers 401.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.WriteError(c, models.NewUnauthorizedError("Not authorized, no token"))
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the :id path parameter. Malformed ids answer 404 with notFound.
func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.WriteError(c, models.NewNotFoundError(notFound))
		return uuid.Nil, false
	}
	return id, true
}

func invalidBody(c *gin.Context) {
	middleware.WriteError(c, models.NewValidationError("Invalid request body"))
}
