package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrypal/backend/internal/middleware"
	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatsResponse is the body of GET /users/me/stats.
type StatsResponse struct {
	TotalRecipes   int64 `json:"totalRecipes"`
	TotalLikes     int64 `json:"totalLikes"`
	TotalFavorites int64 `json:"totalFavorites"`
}

type ProfileHandler struct {
	users   service.IUserService
	recipes service.IRecipeService
	storage storage.Storage
	auth    gin.HandlerFunc
}

func NewProfileHandler(users service.IUserService, recipes service.IRecipeService, store storage.Storage, auth gin.HandlerFunc) *ProfileHandler {
	return &ProfileHandler{users: users, recipes: recipes, storage: store, auth: auth}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/profile", h.auth, h.GetProfile)
		users.PUT("/profile", h.auth, h.UpdateProfile)
		users.GET("/favorites", h.auth, h.GetFavorites)
		users.GET("/my-recipes", h.auth, h.GetMyRecipes)
		users.GET("/me/stats", h.auth, h.GetStats)
		users.DELETE("/delete", h.auth, h.DeleteAccount)
		users.GET("/:id/recipes", h.GetUserRecipes)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile accepts JSON or a multipart form with an optional
// "profileImage" file.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	var imagePath string
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			invalidBody(c)
			return
		}
		req.Name = deref(formString(form, "name"))
		req.Email = deref(formString(form, "email"))
		if files := form.File["profileImage"]; len(files) > 0 {
			paths, err := saveUploads(c.Request.Context(), h.storage, storage.FolderProfile, files[:1])
			if err != nil {
				middleware.WriteError(c, err)
				return
			}
			imagePath = paths[0]
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	}, imagePath)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *ProfileHandler) GetFavorites(c *gin.Context) {
	listRecipes(c, h.recipes.ListFavorites)
}

func (h *ProfileHandler) GetMyRecipes(c *gin.Context) {
	listRecipes(c, h.recipes.ListByOwner)
}

func (h *ProfileHandler) GetUserRecipes(c *gin.Context) {
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}

	res, err := h.users.ListUserRecipes(c.Request.Context(), id)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.users.GetStats(c.Request.Context(), userID)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse(stats))
}

func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), userID); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your account and all recipes have been deleted."})
}

func statsResponse(s models.Stats) StatsResponse {
	return StatsResponse{
		TotalRecipes:   s.RecipesCreated,
		TotalLikes:     s.TotalLikes,
		TotalFavorites: s.TotalFavorites,
	}
}
