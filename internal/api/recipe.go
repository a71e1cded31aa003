package api

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/pantrypal/backend/internal/middleware"
	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

// RecipeRequest is the body of create and update. Absent fields are nil.
// Images lists stored paths to keep and only applies to updates.
type RecipeRequest struct {
	Title       *string  `json:"title"`
	Ingredients TextList `json:"ingredients"`
	Steps       TextList `json:"steps"`
	Cuisine     *string  `json:"cuisine"`
	DietType    *string  `json:"dietType"`
	CookingTime *int     `json:"cookingTime"`
	Images      TextList `json:"images"`
}

type recipeLister func(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error)

type RecipeHandler struct {
	recipes service.IRecipeService
	storage storage.Storage
	auth    gin.HandlerFunc
}

func NewRecipeHandler(recipes service.IRecipeService, store storage.Storage, auth gin.HandlerFunc) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, storage: store, auth: auth}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/my", h.auth, h.MyRecipes)
		recipes.GET("/favorites", h.auth, h.FavoriteRecipes)
		recipes.GET("/liked", h.auth, h.LikedRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", h.auth, h.CreateRecipe)
		recipes.PUT("/:id", h.auth, h.UpdateRecipe)
		recipes.DELETE("/:id", h.auth, h.DeleteRecipe)
		recipes.POST("/:id/like", h.auth, h.ToggleLike)
		recipes.POST("/:id/favorite", h.auth, h.ToggleFavorite)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var params search.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.WriteError(c, models.NewValidationError("Invalid query parameters"))
		return
	}

	page, err := h.recipes.List(c.Request.Context(), params)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "Recipe not found")
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req, files, err := h.bindRecipe(c)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	if len(files) > service.MaxRecipeImages {
		middleware.WriteError(c, models.NewValidationError("A recipe can have at most 10 images"))
		return
	}

	images, err := saveUploads(c.Request.Context(), h.storage, storage.FolderRecipes, files)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), userID, service.RecipeInput{
		Title:       deref(req.Title),
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Cuisine:     deref(req.Cuisine),
		DietType:    deref(req.DietType),
		CookingTime: derefInt(req.CookingTime),
		Images:      images,
	})
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Recipe created successfully 🎉",
		"recipe":  recipe,
	})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Recipe not found")
	if !ok {
		return
	}
	req, files, err := h.bindRecipe(c)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	if len(files) > 0 {
		// Uploads are only stored for the owner.
		current, err := h.recipes.Get(c.Request.Context(), id)
		if err != nil {
			middleware.WriteError(c, err)
			return
		}
		if current.OwnerID != userID {
			middleware.WriteError(c, models.NewForbiddenError("You are not allowed to update this recipe"))
			return
		}
		if len(files) > service.MaxRecipeImages {
			middleware.WriteError(c, models.NewValidationError("A recipe can have at most 10 images"))
			return
		}
	}
	newImages, err := saveUploads(c.Request.Context(), h.storage, storage.FolderRecipes, files)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, userID, service.RecipeUpdate{
		Title:       req.Title,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Cuisine:     req.Cuisine,
		DietType:    req.DietType,
		CookingTime: req.CookingTime,
		Images:      req.Images,
		NewImages:   newImages,
	})
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe updated successfully",
		"recipe":  recipe,
	})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Recipe not found")
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), id, userID); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

func (h *RecipeHandler) ToggleLike(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Recipe not found")
	if !ok {
		return
	}

	result, err := h.recipes.ToggleLike(c.Request.Context(), id, userID)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	message := "Like removed"
	if result.Liked {
		message = "Recipe liked"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"likes":   result.Likes,
		"liked":   result.Liked,
	})
}

func (h *RecipeHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Recipe not found")
	if !ok {
		return
	}

	result, err := h.recipes.ToggleFavorite(c.Request.Context(), userID, id)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	message := "Recipe removed from favorites"
	if result.Favorited {
		message = "Recipe added to favorites"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"favorited": result.Favorited,
	})
}

func (h *RecipeHandler) MyRecipes(c *gin.Context) {
	listRecipes(c, h.recipes.ListByOwner)
}

func (h *RecipeHandler) FavoriteRecipes(c *gin.Context) {
	listRecipes(c, h.recipes.ListFavorites)
}

func (h *RecipeHandler) LikedRecipes(c *gin.Context) {
	listRecipes(c, h.recipes.ListLiked)
}

func listRecipes(c *gin.Context, list recipeLister) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipes, err := list(c.Request.Context(), userID)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// bindRecipe reads a JSON body, or a multipart form whose "images" files
// are new uploads and whose "images" values are paths to keep.
func (h *RecipeHandler) bindRecipe(c *gin.Context) (RecipeRequest, []*multipart.FileHeader, error) {
	var req RecipeRequest
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, models.NewValidationError("Invalid request body")
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, models.NewValidationError("Invalid request body")
	}
	req.Title = formString(form, "title")
	req.Ingredients = formList(form, "ingredients")
	req.Steps = formList(form, "steps")
	req.Cuisine = formString(form, "cuisine")
	req.DietType = formString(form, "dietType")
	req.Images = formList(form, "images")
	if v := formString(form, "cookingTime"); v != nil && strings.TrimSpace(*v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(*v))
		if err != nil {
			return req, nil, models.NewValidationError("Cooking time must be a number")
		}
		req.CookingTime = &n
	}
	return req, form.File["images"], nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
