package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StringList is a list of strings stored as a JSON text column.
type StringList []string

// ListSeparator delimits entries in a list's search text. It is not a word
// character, so a word boundary never spans two entries.
const ListSeparator = "\x1e"

// SearchText joins the raw entries for regex predicates. Separators inside an
// entry become spaces.
func (l StringList) SearchText() string {
	parts := make([]string, len(l))
	for i, entry := range l {
		parts[i] = strings.ReplaceAll(entry, ListSeparator, " ")
	}
	return strings.Join(parts, ListSeparator)
}

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]string(l)); err != nil {
		return nil, err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}

	return json.Unmarshal(raw, l)
}

type Recipe struct {
	ID              uuid.UUID    `gorm:"type:varchar(36);primarykey" json:"_id"`
	CreatedAt       time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Title           string       `gorm:"size:255;not null" json:"title"`
	Ingredients     StringList   `gorm:"type:text;not null" json:"ingredients"`
	Steps           StringList   `gorm:"type:text;not null" json:"steps"`
	// Unescaped copies of Ingredients and Steps that searches match against.
	IngredientsText string       `gorm:"type:text;not null;default:''" json:"-"`
	StepsText       string       `gorm:"type:text;not null;default:''" json:"-"`
	Cuisine         string       `gorm:"size:100" json:"cuisine"`
	DietType        string       `gorm:"size:100" json:"dietType"`
	CookingTime     int          `gorm:"not null;default:0" json:"cookingTime"`
	Images          StringList   `gorm:"type:text" json:"images"`
	Likes           int          `gorm:"not null;default:0;index" json:"likes"`
	LikedBy         []uuid.UUID  `gorm:"-" json:"likedBy"`
	OwnerID         uuid.UUID    `gorm:"type:varchar(36);not null;index" json:"ownerId"`
	Owner           *UserSummary `gorm:"-" json:"owner,omitempty"`
}

// RefreshSearchText recomputes the search copies of the list fields.
func (r *Recipe) RefreshSearchText() {
	r.IngredientsText = r.Ingredients.SearchText()
	r.StepsText = r.Steps.SearchText()
}

// RecipeLike is a row of a recipe's likedBy set. Recipe.Likes is recounted
// from this table whenever it changes.
type RecipeLike struct {
	RecipeID  uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:varchar(36);primaryKey;index"`
	CreatedAt time.Time
}

func (RecipeLike) TableName() string {
	return "recipe_likes"
}

// LikeResult is the state of a like relation after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// FavoriteResult is the state of a favorite relation after a toggle.
type FavoriteResult struct {
	Favorited bool `json:"favorited"`
}

// RecipePage is one page of a catalog listing.
type RecipePage struct {
	Recipes    []Recipe `json:"recipes"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
}

// HasLiked reports whether userID is in the likedBy set.
func (r *Recipe) HasLiked(userID uuid.UUID) bool {
	for _, id := range r.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
