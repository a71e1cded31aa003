package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/pantrypal/backend/internal/models"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	user.Favorites = []uuid.UUID{}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, "email = ?", models.NormalizeEmail(email))
}

func (r *GormUserRepository) find(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}

	user.Favorites = []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ?", user.ID).
		Order("created_at").
		Pluck("recipe_id", &user.Favorites).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(user).
		Select("name", "email", "profile_image", "password_hash", "updated_at").
		Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").Take(&user, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		owned := tx.Model(&models.Recipe{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("recipe_id IN (?)", owned).Delete(&models.RecipeLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id IN (?)", owned).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&models.Recipe{}).Error; err != nil {
			return err
		}

		var liked []uuid.UUID
		if err := tx.Model(&models.RecipeLike{}).Where("user_id = ?", id).Pluck("recipe_id", &liked).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RecipeLike{}).Error; err != nil {
			return err
		}
		if err := recountLikes(tx, liked...); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}

func (r *GormUserRepository) ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	favorited := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Favorite{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		favorited = true
		fav := models.Favorite{UserID: userID, RecipeID: recipeID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
	})
	return favorited, err
}

// Stats counts the user's recipes, the likes they received and how many
// times other users favorited them.
func (r *GormUserRepository) Stats(ctx context.Context, userID uuid.UUID) (models.Stats, error) {
	var stats models.Stats
	db := r.db.WithContext(ctx)

	row := db.Model(&models.Recipe{}).
		Select("COUNT(*), CAST(COALESCE(SUM(likes), 0) AS BIGINT)").
		Where("owner_id = ?", userID).
		Row()
	if err := row.Scan(&stats.RecipesCreated, &stats.TotalLikes); err != nil {
		return models.Stats{}, err
	}

	owned := db.Model(&models.Recipe{}).Select("id").Where("owner_id = ?", userID)
	if err := db.Model(&models.Favorite{}).Where("recipe_id IN (?)", owned).Count(&stats.TotalFavorites).Error; err != nil {
		return models.Stats{}, err
	}
	return stats, nil
}
