package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
)

// IUserService defines the interface for account and profile operations
type IUserService interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetStats(ctx context.Context, userID uuid.UUID) (models.Stats, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate, newImagePath string) (*models.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	ListUserRecipes(ctx context.Context, userID uuid.UUID) (*models.UserRecipes, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input RecipeInput) (*models.Recipe, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	Update(ctx context.Context, id, requesterID uuid.UUID, update RecipeUpdate) (*models.Recipe, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID) error
	ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeResult, error)
	ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (models.FavoriteResult, error)
	List(ctx context.Context, params search.Params) (*models.RecipePage, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Recipe, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error)
	ListLiked(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error)
}

// IContactService defines the interface for the public contact form
type IContactService interface {
	Send(ctx context.Context, msg ContactMessage) error
}

// IEmailService defines the interface for email operations
type IEmailService interface {
	SendPasswordResetEmail(ctx context.Context, user *models.User, resetURL string) error
	SendContactNotification(ctx context.Context, msg ContactMessage) error
	SendContactConfirmation(ctx context.Context, msg ContactMessage) error
}
