package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
	"github.com/pageza/pantrypal/backend/internal/service"
)

// MockRecipeService is a mock implementation of service.IRecipeService
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) Create(ctx context.Context, ownerID uuid.UUID, input service.RecipeInput) (*models.Recipe, error) {
	args := m.Called(ctx, ownerID, input)
	return recipeArg(args)
}

func (m *MockRecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	return recipeArg(args)
}

func (m *MockRecipeService) Update(ctx context.Context, id, requesterID uuid.UUID, update service.RecipeUpdate) (*models.Recipe, error) {
	args := m.Called(ctx, id, requesterID, update)
	return recipeArg(args)
}

func (m *MockRecipeService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	args := m.Called(ctx, id, requesterID)
	return args.Error(0)
}

func (m *MockRecipeService) ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeResult, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(models.LikeResult), args.Error(1)
}

func (m *MockRecipeService) ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (models.FavoriteResult, error) {
	args := m.Called(ctx, userID, recipeID)
	return args.Get(0).(models.FavoriteResult), args.Error(1)
}

func (m *MockRecipeService) List(ctx context.Context, params search.Params) (*models.RecipePage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecipePage), args.Error(1)
}

func (m *MockRecipeService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Recipe, error) {
	args := m.Called(ctx, ownerID)
	return recipesArg(args)
}

func (m *MockRecipeService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	args := m.Called(ctx, userID)
	return recipesArg(args)
}

func (m *MockRecipeService) ListLiked(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	args := m.Called(ctx, userID)
	return recipesArg(args)
}

func recipeArg(args mock.Arguments) (*models.Recipe, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func recipesArg(args mock.Arguments) ([]models.Recipe, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}
