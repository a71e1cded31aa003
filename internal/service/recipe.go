package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/repository"
	"github.com/pageza/pantrypal/backend/internal/search"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

const MaxRecipeImages = 10

// RecipeInput is a new recipe as submitted by its owner.
type RecipeInput struct {
	Title       string
	Ingredients []string
	Steps       []string
	Cuisine     string
	DietType    string
	CookingTime int
	Images      []string
}

// RecipeUpdate is a partial edit. Nil fields are left unchanged.
// Images lists the current images to keep; paths the recipe does not
// already have are ignored. NewImages are freshly stored uploads.
type RecipeUpdate struct {
	Title       *string
	Ingredients []string
	Steps       []string
	Cuisine     *string
	DietType    *string
	CookingTime *int
	Images      []string
	NewImages   []string
}

type RecipeService struct {
	recipes repository.RecipeRepository
	users   repository.UserRepository
	storage storage.Storage
}

func NewRecipeService(recipes repository.RecipeRepository, users repository.UserRepository, store storage.Storage) *RecipeService {
	return &RecipeService{recipes: recipes, users: users, storage: store}
}

// Create stores a new recipe. input.Images are stored uploads; they are
// removed when the recipe is rejected.
func (s *RecipeService) Create(ctx context.Context, ownerID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	recipe, err := s.create(ctx, ownerID, input)
	if err != nil {
		removeAssets(ctx, s.storage, input.Images...)
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) create(ctx context.Context, ownerID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Ingredients: models.StringList(compact(input.Ingredients)),
		Steps:       models.StringList(compact(input.Steps)),
		Cuisine:     strings.TrimSpace(input.Cuisine),
		DietType:    strings.TrimSpace(input.DietType),
		CookingTime: input.CookingTime,
		Images:      models.StringList(compact(input.Images)),
		OwnerID:     ownerID,
	}
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, userError(err)
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, models.NewInternalError(err)
	}
	recipe.Owner = owner.Summary()
	return recipe, nil
}

func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, recipeError(err)
	}
	return recipe, nil
}

// Update checks ownership before looking at the payload, so a non-owner
// gets Forbidden whatever they send. NewImages are removed when the
// update is rejected.
func (s *RecipeService) Update(ctx context.Context, id, requesterID uuid.UUID, update RecipeUpdate) (*models.Recipe, error) {
	recipe, err := s.update(ctx, id, requesterID, update)
	if err != nil {
		removeAssets(ctx, s.storage, update.NewImages...)
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) update(ctx context.Context, id, requesterID uuid.UUID, update RecipeUpdate) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.OwnerID != requesterID {
		return nil, models.NewForbiddenError("You are not allowed to update this recipe")
	}

	if update.Title != nil {
		recipe.Title = strings.TrimSpace(*update.Title)
	}
	if update.Ingredients != nil {
		recipe.Ingredients = compact(update.Ingredients)
	}
	if update.Steps != nil {
		recipe.Steps = compact(update.Steps)
	}
	if update.Cuisine != nil {
		recipe.Cuisine = strings.TrimSpace(*update.Cuisine)
	}
	if update.DietType != nil {
		recipe.DietType = strings.TrimSpace(*update.DietType)
	}
	if update.CookingTime != nil {
		recipe.CookingTime = *update.CookingTime
	}
	var dropped []string
	if update.Images != nil || len(update.NewImages) > 0 {
		images := append([]string{}, recipe.Images...)
		if update.Images != nil {
			images = retained(recipe.Images, compact(update.Images))
		}
		images = append(images, compact(update.NewImages)...)
		dropped = missing(recipe.Images, images)
		recipe.Images = images
	}
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}

	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, recipeError(err)
	}
	removeAssets(ctx, s.storage, dropped...)
	return s.Get(ctx, id)
}

func (s *RecipeService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if recipe.OwnerID != requesterID {
		return models.NewForbiddenError("You are not allowed to delete this recipe")
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return recipeError(err)
	}
	removeAssets(ctx, s.storage, recipe.Images...)
	return nil
}

func (s *RecipeService) ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeResult, error) {
	result, err := s.recipes.ToggleLike(ctx, id, userID)
	if err != nil {
		return models.LikeResult{}, recipeError(err)
	}
	log.Ctx(ctx).Debug().
		Str("recipe_id", id.String()).
		Bool("liked", result.Liked).
		Int("likes", result.Likes).
		Msg("like toggled")
	return result, nil
}

func (s *RecipeService) ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (models.FavoriteResult, error) {
	if _, err := s.recipes.FindByID(ctx, recipeID); err != nil {
		return models.FavoriteResult{}, recipeError(err)
	}
	favorited, err := s.users.ToggleFavorite(ctx, userID, recipeID)
	if err != nil {
		return models.FavoriteResult{}, userError(err)
	}
	return models.FavoriteResult{Favorited: favorited}, nil
}

func (s *RecipeService) List(ctx context.Context, params search.Params) (*models.RecipePage, error) {
	q := search.Build(params)
	recipes, total, err := s.recipes.Search(ctx, q)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.RecipePage{
		Recipes:    recipes,
		Total:      total,
		Page:       q.Page,
		TotalPages: q.TotalPages(total),
	}, nil
}

func (s *RecipeService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Recipe, error) {
	return listResult(s.recipes.ListByOwner(ctx, ownerID))
}

func (s *RecipeService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	return listResult(s.recipes.ListFavorites(ctx, userID))
}

func (s *RecipeService) ListLiked(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	return listResult(s.recipes.ListLiked(ctx, userID))
}

func listResult(recipes []models.Recipe, err error) ([]models.Recipe, error) {
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func validateRecipe(r *models.Recipe) error {
	if r.Title == "" || len(r.Ingredients) == 0 || len(r.Steps) == 0 {
		return models.NewValidationError("Title, ingredients, and steps are required")
	}
	if r.CookingTime < 0 {
		return models.NewValidationError("Cooking time cannot be negative")
	}
	if len(r.Images) > MaxRecipeImages {
		return models.NewValidationError("A recipe can have at most 10 images")
	}
	return nil
}

// compact trims entries and drops the empty ones.
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// retained returns the entries of requested that are in current, once each.
func retained(current, requested []string) []string {
	known := make(map[string]bool, len(current))
	for _, c := range current {
		known[c] = true
	}
	out := make([]string, 0, len(requested))
	for _, r := range requested {
		if known[r] {
			out = append(out, r)
			delete(known, r)
		}
	}
	return out
}

// missing returns the entries of before that are not in after.
func missing(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, a := range after {
		keep[a] = true
	}
	var out []string
	for _, b := range before {
		if !keep[b] {
			out = append(out, b)
		}
	}
	return out
}

func recipeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("Recipe not found")
	}
	return models.NewInternalError(err)
}
