// Package repository persists users and recipes. Two implementations exist:
// gorm (PostgreSQL, SQLite) and MongoDB. Both keep Recipe.Likes equal to the
// size of the likedBy set on every mutation.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Update writes name, email, profile image and password hash.
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user, the recipes they own and every like or
	// favorite that referenced either.
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (bool, error)
	Stats(ctx context.Context, userID uuid.UUID) (models.Stats, error)
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	// Update writes the editable fields. Owner, likes and createdAt are untouched.
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q search.Query) ([]models.Recipe, int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Recipe, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error)
	ListLiked(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error)
	ToggleLike(ctx context.Context, recipeID, userID uuid.UUID) (models.LikeResult, error)
}
