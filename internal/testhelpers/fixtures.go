package testhelpers

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/pageza/pantrypal/backend/internal/models"
)

// NewUser returns an unsaved user with a unique address.
func NewUser() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Name:         gofakeit.Name(),
		Email:        models.NormalizeEmail(uuid.NewString()[:8] + "." + gofakeit.Email()),
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderplace",
	}
}

// NewRecipe returns an unsaved recipe owned by ownerID with the given title.
func NewRecipe(ownerID uuid.UUID, title string) *models.Recipe {
	return &models.Recipe{
		ID:          uuid.New(),
		CreatedAt:   time.Now(),
		Title:       title,
		Ingredients: models.StringList{"flour, milk, egg"},
		Steps:       models.StringList{"mix, cook"},
		Cuisine:     "American",
		DietType:    "Vegetarian",
		CookingTime: gofakeit.Number(5, 90),
		Images:      models.StringList{},
		OwnerID:     ownerID,
	}
}
