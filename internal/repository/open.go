package repository

import (
	"context"
	"fmt"

	"github.com/pageza/pantrypal/backend/config"
	"github.com/pageza/pantrypal/backend/internal/database"
)

// Stores holds the repositories of one backing store.
type Stores struct {
	Users   UserRepository
	Recipes RecipeRepository
	close   func(ctx context.Context) error
}

// Close releases the underlying connection.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the store named by cfg.DBDriver. Relational schemas are
// migrated when migrate is set; MongoDB indexes are always ensured.
func Open(ctx context.Context, cfg *config.Config, migrate bool) (*Stores, error) {
	if cfg.DBDriver == "mongo" {
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		return &Stores{
			Users:   NewMongoUserRepository(db),
			Recipes: NewMongoRecipeRepository(db),
			close:   func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if migrate {
		if err := database.RunMigrations(db); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	return &Stores{
		Users:   NewGormUserRepository(db),
		Recipes: NewGormRecipeRepository(db),
		close:   func(context.Context) error { return sqlDB.Close() },
	}, nil
}
