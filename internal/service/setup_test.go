package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrypal/backend/internal/mocks"
	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/repository"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
	"github.com/pageza/pantrypal/backend/internal/testhelpers"
)

type fixture struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	users      *service.UserService
	recipes    *service.RecipeService
	tokens     *service.TokenService
	email      *mocks.MockEmailService
	store      *storage.LocalStorage
	uploadDir  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.SetupSQLiteDB(t)
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	f := &fixture{
		userRepo:   repository.NewGormUserRepository(db),
		recipeRepo: repository.NewGormRecipeRepository(db),
		tokens:     service.NewTokenService("test-secret", 30*24*time.Hour, 15*time.Minute),
		email:      &mocks.MockEmailService{},
		store:      store,
		uploadDir:  dir,
	}
	f.users = service.NewUserService(f.userRepo, f.recipeRepo, f.tokens, f.email, store, "http://localhost:5173/")
	f.recipes = service.NewRecipeService(f.recipeRepo, f.userRepo, store)
	return f
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "-" + uuid.NewString()[:6] + "@example.com"
	res, err := f.users.Register(context.Background(), name, email, "secret123")
	require.NoError(t, err)
	return res.User
}

func (f *fixture) createRecipe(t *testing.T, owner uuid.UUID, title string) *models.Recipe {
	t.Helper()
	r, err := f.recipes.Create(context.Background(), owner, service.RecipeInput{
		Title:       title,
		Ingredients: []string{"flour, milk, egg"},
		Steps:       []string{"mix, cook"},
		Cuisine:     "American",
		DietType:    "Vegetarian",
		CookingTime: 20,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) saveImage(t *testing.T, folder storage.Folder, name string) string {
	t.Helper()
	p, err := f.store.Save(context.Background(), folder, name, "image/png", strings.NewReader("img"))
	require.NoError(t, err)
	return p
}

func kindOf(err error) models.ErrorKind {
	if err == nil {
		return ""
	}
	return models.AsAppError(err).Kind
}
