package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/pantrypal/backend/internal/models"
)

// Models lists every table owned by the relational store.
var Models = []interface{}{
	&models.User{},
	&models.Recipe{},
	&models.RecipeLike{},
	&models.Favorite{},
}

// RunMigrations brings the relational schema up to date.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := backfillSearchText(db); err != nil {
		return fmt.Errorf("failed to backfill recipe search text: %w", err)
	}
	log.Info().Str("dialect", db.Dialector.Name()).Int("tables", len(Models)).Msg("schema migrated")
	return nil
}

// backfillSearchText fills the list search copies of rows saved before the
// columns existed.
func backfillSearchText(db *gorm.DB) error {
	var recipes []models.Recipe
	return db.Where("ingredients_text = '' AND steps_text = '' AND (ingredients <> '[]' OR steps <> '[]')").
		FindInBatches(&recipes, 200, func(tx *gorm.DB, _ int) error {
			for i := range recipes {
				recipes[i].RefreshSearchText()
				err := db.Model(&recipes[i]).
					Select("ingredients_text", "steps_text").
					Updates(&recipes[i]).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// DropTables removes every table in Models, dependents first.
func DropTables(db *gorm.DB) error {
	for i := len(Models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(Models[i]); err != nil {
			return fmt.Errorf("failed to drop %T: %w", Models[i], err)
		}
	}
	log.Info().Str("dialect", db.Dialector.Name()).Msg("schema dropped")
	return nil
}
