package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `gorm:"type:varchar(36);primarykey" json:"_id"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Name         string      `gorm:"not null" json:"name"`
	Email        string      `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"not null" json:"-"`
	ProfileImage string      `gorm:"size:255" json:"profileImage,omitempty"`
	Favorites    []uuid.UUID `gorm:"-" json:"favorites"`
}

// UserSummary is the public part of a user attached to recipes.
type UserSummary struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Favorite is a row of a user's favorites set.
type Favorite struct {
	UserID    uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);primaryKey;index"`
	CreatedAt time.Time
}

func (Favorite) TableName() string {
	return "user_favorites"
}

// Stats are the counters shown on a profile.
type Stats struct {
	RecipesCreated int64 `json:"recipesCreated"`
	TotalLikes     int64 `json:"totalLikes"`
	TotalFavorites int64 `json:"totalFavorites"`
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is a user with the counters derived from their recipes.
type Profile struct {
	*User
	Stats Stats `json:"stats"`
}

// UserRecipes is the public listing of one user's recipes.
type UserRecipes struct {
	Username     string   `json:"username"`
	TotalRecipes int      `json:"totalRecipes"`
	Recipes      []Recipe `json:"recipes"`
}

// TokenClaims is what a verified session token says about its bearer.
type TokenClaims struct {
	UserID uuid.UUID
}
