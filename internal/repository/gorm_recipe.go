package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
)

var editableRecipeColumns = []string{
	"title", "ingredients", "steps", "ingredients_text", "steps_text",
	"cuisine", "diet_type", "cooking_time", "images", "updated_at",
}

// listColumns holds the search copies matched in place of list columns,
// whose JSON encoding would expose escapes and quotes to the pattern.
var listColumns = map[search.Field]string{
	search.FieldIngredients: "ingredients_text",
	search.FieldSteps:       "steps_text",
}

type GormRecipeRepository struct {
	db *gorm.DB
}

func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

func (r *GormRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	recipe.Likes = 0
	recipe.LikedBy = []uuid.UUID{}
	recipe.RefreshSearchText()
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *GormRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	recipes := []models.Recipe{recipe}
	if err := hydrate(ctx, r.db, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

func (r *GormRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	recipe.UpdatedAt = time.Now()
	recipe.RefreshSearchText()
	res := r.db.WithContext(ctx).Model(recipe).Select(editableRecipeColumns).Updates(recipe)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Recipe{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Delete(&models.RecipeLike{}, "recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Favorite{}, "recipe_id = ?", id).Error
	})
}

func (r *GormRecipeRepository) Search(ctx context.Context, q search.Query) ([]models.Recipe, int64, error) {
	base := applyClauses(r.db.WithContext(ctx).Model(&models.Recipe{}), q.Clauses).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := q.Order()
	recipes := []models.Recipe{}
	err := base.
		Order(clause.OrderByColumn{Column: clause.Column{Name: string(order.Field)}, Desc: order.Desc}).
		Order("id").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	if err := hydrate(ctx, r.db, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (r *GormRecipeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Recipe, error) {
	return r.list(ctx, r.db.Where("owner_id = ?", ownerID))
}

func (r *GormRecipeRepository) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	favorites := r.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", userID)
	return r.list(ctx, r.db.Where("id IN (?)", favorites))
}

func (r *GormRecipeRepository) ListLiked(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	liked := r.db.Model(&models.RecipeLike{}).Select("recipe_id").Where("user_id = ?", userID)
	return r.list(ctx, r.db.Where("id IN (?)", liked))
}

func (r *GormRecipeRepository) list(ctx context.Context, scope *gorm.DB) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := scope.WithContext(ctx).Model(&models.Recipe{}).Order("created_at DESC").Order("id").Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	if err := hydrate(ctx, r.db, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// ToggleLike flips the (recipe, user) like row and recounts likes inside one
// transaction. On PostgreSQL the recipe row is locked first so concurrent
// toggles on the same recipe recount in order.
func (r *GormRecipeRepository) ToggleLike(ctx context.Context, recipeID, userID uuid.UUID) (models.LikeResult, error) {
	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRecipe(tx, recipeID); err != nil {
			return err
		}

		res := tx.Delete(&models.RecipeLike{}, "recipe_id = ? AND user_id = ?", recipeID, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.RecipeLike{RecipeID: recipeID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		if err := recountLikes(tx, recipeID); err != nil {
			return err
		}
		var recipe models.Recipe
		if err := tx.Select("likes").Take(&recipe, "id = ?", recipeID).Error; err != nil {
			return err
		}
		result.Likes = recipe.Likes
		return nil
	})
	if err != nil {
		return models.LikeResult{}, translate(err)
	}
	return result, nil
}

func lockRecipe(tx *gorm.DB, id uuid.UUID) error {
	q := tx.Model(&models.Recipe{}).Select("id")
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var recipe models.Recipe
	return q.Take(&recipe, "id = ?", id).Error
}

const recountSQL = "UPDATE recipes SET likes = (SELECT COUNT(*) FROM recipe_likes WHERE recipe_likes.recipe_id = recipes.id) WHERE id IN ?"

func recountLikes(tx *gorm.DB, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Exec(recountSQL, ids).Error
}

// applyClauses renders search clauses in the connection's regex dialect.
func applyClauses(tx *gorm.DB, clauses []search.Clause) *gorm.DB {
	postgres := tx.Dialector.Name() == "postgres"
	for _, c := range clauses {
		if c.Kind == search.AtMost {
			tx = tx.Where(string(c.Fields[0])+" <= ?", c.Bound)
			continue
		}

		var pattern, op string
		if postgres {
			pattern, op = c.Pattern(search.PostgresBoundary), " ~* ?"
		} else {
			pattern, op = "(?i)"+c.Pattern(search.PerlBoundary), " REGEXP ?"
		}

		conds := make([]string, 0, len(c.Fields))
		args := make([]interface{}, 0, len(c.Fields))
		for _, f := range c.Fields {
			column, isList := listColumns[f]
			if !isList {
				column = string(f)
			} else if strings.Contains(c.Term, models.ListSeparator) {
				// A term with a separator could only match across entries.
				continue
			}
			conds = append(conds, column+op)
			args = append(args, pattern)
		}
		if len(conds) == 0 {
			tx = tx.Where("1 = 0")
			continue
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	return tx
}

// hydrate attaches likedBy sets and owner summaries to a page of recipes.
func hydrate(ctx context.Context, db *gorm.DB, recipes []models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(recipes))
	ownerIDs := make([]uuid.UUID, 0, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		ownerIDs = append(ownerIDs, recipes[i].OwnerID)
		recipes[i].LikedBy = []uuid.UUID{}
	}

	var likes []models.RecipeLike
	if err := db.WithContext(ctx).Where("recipe_id IN ?", ids).Order("created_at").Find(&likes).Error; err != nil {
		return err
	}
	likedBy := make(map[uuid.UUID][]uuid.UUID, len(recipes))
	for _, l := range likes {
		likedBy[l.RecipeID] = append(likedBy[l.RecipeID], l.UserID)
	}

	var owners []models.User
	if err := db.WithContext(ctx).Select("id", "name", "email").Where("id IN ?", ownerIDs).Find(&owners).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.UserSummary, len(owners))
	for i := range owners {
		byID[owners[i].ID] = owners[i].Summary()
	}

	for i := range recipes {
		if users, ok := likedBy[recipes[i].ID]; ok {
			recipes[i].LikedBy = users
		}
		recipes[i].Owner = byID[recipes[i].OwnerID]
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

// isUniqueViolation catches drivers whose errors gorm does not translate.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
