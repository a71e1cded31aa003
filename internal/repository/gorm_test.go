package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/pantrypal/backend/internal/testhelpers"
)

func gormStores(db *gorm.DB) stores {
	return stores{
		users:   NewGormUserRepository(db),
		recipes: NewGormRecipeRepository(db),
	}
}

func TestGormRepositories_SQLite(t *testing.T) {
	runContract(t, func(t *testing.T) stores {
		return gormStores(testhelpers.SetupSQLiteDB(t))
	})
}

func TestGormRepositories_Postgres(t *testing.T) {
	db := testhelpers.SetupPostgresDB(t)
	runContract(t, func(t *testing.T) stores {
		err := db.Exec("TRUNCATE TABLE recipe_likes, user_favorites, recipes, users").Error
		require.NoError(t, err)
		return gormStores(db)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"UNIQUE constraint failed: users.email", true},
		{`ERROR: duplicate key value violates unique constraint "idx_users_email"`, true},
		{"connection refused", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			require.Equal(t, tt.want, isUniqueViolation(stringError(tt.msg)))
		})
	}
}

type stringError string

func (e stringError) Error() string { return string(e) }
