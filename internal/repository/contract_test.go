package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
	"github.com/pageza/pantrypal/backend/internal/testhelpers"
)

type stores struct {
	users   UserRepository
	recipes RecipeRepository
}

// runContract exercises behavior every store must share.
func runContract(t *testing.T, open func(t *testing.T) stores) {
	ctx := context.Background()

	seedUser := func(t *testing.T, s stores) *models.User {
		t.Helper()
		u := testhelpers.NewUser()
		require.NoError(t, s.users.Create(ctx, u))
		return u
	}
	seedRecipe := func(t *testing.T, s stores, owner uuid.UUID, title string, mutate ...func(*models.Recipe)) *models.Recipe {
		t.Helper()
		r := testhelpers.NewRecipe(owner, title)
		for _, m := range mutate {
			m(r)
		}
		require.NoError(t, s.recipes.Create(ctx, r))
		return r
	}
	titles := func(recipes []models.Recipe) []string {
		out := make([]string, len(recipes))
		for i, r := range recipes {
			out[i] = r.Title
		}
		return out
	}

	t.Run("duplicate email", func(t *testing.T) {
		s := open(t)
		u := seedUser(t, s)
		dup := testhelpers.NewUser()
		dup.Email = u.Email
		assert.ErrorIs(t, s.users.Create(ctx, dup), ErrDuplicate)
	})

	t.Run("find missing", func(t *testing.T) {
		s := open(t)
		_, err := s.users.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.recipes.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.recipes.Delete(ctx, uuid.New()), ErrNotFound)
		_, err = s.recipes.ToggleLike(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by email ignores case", func(t *testing.T) {
		s := open(t)
		u := seedUser(t, s)
		found, err := s.users.FindByEmail(ctx, "  "+u.Email+" ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.Empty(t, found.Favorites)
	})

	t.Run("recipe owner is populated", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		r := seedRecipe(t, s, alice.ID, "Pancakes")

		got, err := s.recipes.FindByID(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Owner)
		assert.Equal(t, alice.Name, got.Owner.Name)
		assert.Equal(t, alice.Email, got.Owner.Email)
		assert.Equal(t, models.StringList{"flour, milk, egg"}, got.Ingredients)
		assert.Equal(t, 0, got.Likes)
		assert.Empty(t, got.LikedBy)
	})

	t.Run("update keeps owner and likes", func(t *testing.T) {
		s := open(t)
		alice, bob := seedUser(t, s), seedUser(t, s)
		r := seedRecipe(t, s, alice.ID, "Pancakes")
		_, err := s.recipes.ToggleLike(ctx, r.ID, bob.ID)
		require.NoError(t, err)

		r.Title = "Fluffy Pancakes"
		r.Likes = 0
		r.Images = models.StringList{"uploads/recipes/1-a.png"}
		require.NoError(t, s.recipes.Update(ctx, r))

		got, err := s.recipes.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Fluffy Pancakes", got.Title)
		assert.Equal(t, alice.ID, got.OwnerID)
		assert.Equal(t, 1, got.Likes)
		assert.Equal(t, models.StringList{"uploads/recipes/1-a.png"}, got.Images)
	})

	t.Run("whole word search", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		seedRecipe(t, s, alice.ID, "Pancakes")
		seedRecipe(t, s, alice.ID, "Chocolate Cake")

		got, total, err := s.recipes.Search(ctx, search.Build(search.Params{Search: "cake"}))
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, []string{"Chocolate Cake"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{Search: "PANCAKES"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Pancakes"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{Search: "ca"}))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("search matches steps and cuisine", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		seedRecipe(t, s, alice.ID, "Curry", func(r *models.Recipe) {
			r.Cuisine = "Thai"
			r.Steps = models.StringList{"simmer gently"}
		})
		seedRecipe(t, s, alice.ID, "Toast")

		got, _, err := s.recipes.Search(ctx, search.Build(search.Params{Search: "simmer"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Curry"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{Search: "thai"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Curry"}, titles(got))
	})

	t.Run("list fields match entries as plain text", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		seedRecipe(t, s, alice.ID, "Broth", func(r *models.Recipe) {
			r.Ingredients = models.StringList{"salt", "water", `sea salt\pepper`, `2 "ripe" tomatoes`}
			r.Steps = models.StringList{"boil\tstir", "rest\nsimmer"}
		})

		count := func(p search.Params) int64 {
			t.Helper()
			_, total, err := s.recipes.Search(ctx, search.Build(p))
			require.NoError(t, err)
			return total
		}

		matches := []string{"stir", "simmer", "pepper", "ripe", "salt", "water"}
		for _, term := range matches {
			assert.EqualValues(t, 1, count(search.Params{Search: term}), "search %q", term)
		}

		// Escape sequences of a serialized list are not text.
		for _, term := range []string{"tstir", "nsimmer", "u0022", `"ripe\"`} {
			assert.Zero(t, count(search.Params{Search: term}), "search %q", term)
		}

		// Terms never span two entries.
		for _, term := range []string{`salt","water`, "salt water", "salt, water", "salt" + models.ListSeparator + "water", "stir rest"} {
			assert.Zero(t, count(search.Params{Search: term}), "search %q", term)
		}
		assert.Zero(t, count(search.Params{Ingredients: `salt","water`}))
		assert.EqualValues(t, 1, count(search.Params{Ingredients: "salt, water"}))
	})

	t.Run("filters combine", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		seedRecipe(t, s, alice.ID, "Omelette", func(r *models.Recipe) {
			r.Ingredients = models.StringList{"egg, butter, chives"}
			r.DietType = "Vegetarian"
			r.CookingTime = 10
		})
		seedRecipe(t, s, alice.ID, "Eggplant Stew", func(r *models.Recipe) {
			r.Ingredients = models.StringList{"eggplant, butter"}
			r.DietType = "Vegan"
			r.CookingTime = 40
		})
		seedRecipe(t, s, alice.ID, "Slow Omelette", func(r *models.Recipe) {
			r.Ingredients = models.StringList{"egg, butter"}
			r.DietType = "vegetarian"
			r.CookingTime = 90
		})

		got, _, err := s.recipes.Search(ctx, search.Build(search.Params{Ingredients: "egg, butter"}))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Omelette", "Slow Omelette"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{Ingredients: "egg,chives"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Omelette"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{DietType: "VEGETARIAN", MaxTime: "30"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Omelette"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{DietType: "vegan", Cuisine: "american", Sort: "time"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Eggplant Stew"}, titles(got))
	})

	t.Run("pagination and sort", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
		for i := 0; i < 15; i++ {
			i := i
			seedRecipe(t, s, alice.ID, fmt.Sprintf("Soup %02d", i), func(r *models.Recipe) {
				r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
				r.CookingTime = 100 - i
			})
		}

		q := search.Build(search.Params{Page: "2", Limit: "10"})
		got, total, err := s.recipes.Search(ctx, q)
		require.NoError(t, err)
		assert.EqualValues(t, 15, total)
		assert.Len(t, got, 5)
		assert.Equal(t, 2, q.TotalPages(total))
		assert.Equal(t, "Soup 04", got[0].Title)

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{Sort: "oldest", Limit: "3"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Soup 00", "Soup 01", "Soup 02"}, titles(got))

		got, _, err = s.recipes.Search(ctx, search.Build(search.Params{Sort: "time", Limit: "2"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Soup 14", "Soup 13"}, titles(got))
	})

	t.Run("sort by likes", func(t *testing.T) {
		s := open(t)
		alice, bob := seedUser(t, s), seedUser(t, s)
		plain := seedRecipe(t, s, alice.ID, "Plain")
		popular := seedRecipe(t, s, alice.ID, "Popular")
		_ = plain
		_, err := s.recipes.ToggleLike(ctx, popular.ID, bob.ID)
		require.NoError(t, err)

		got, _, err := s.recipes.Search(ctx, search.Build(search.Params{Sort: "likes"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Popular", "Plain"}, titles(got))
	})

	t.Run("toggle like twice restores state", func(t *testing.T) {
		s := open(t)
		alice, bob := seedUser(t, s), seedUser(t, s)
		r := seedRecipe(t, s, alice.ID, "Pancakes")

		res, err := s.recipes.ToggleLike(ctx, r.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LikeResult{Liked: true, Likes: 1}, res)

		got, err := s.recipes.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{bob.ID}, got.LikedBy)
		assert.Equal(t, len(got.LikedBy), got.Likes)

		res, err = s.recipes.ToggleLike(ctx, r.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LikeResult{Liked: false, Likes: 0}, res)

		got, err = s.recipes.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Empty(t, got.LikedBy)
		assert.Equal(t, 0, got.Likes)

		liked, err := s.recipes.ListLiked(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, liked)
	})

	t.Run("concurrent toggles keep odd-count users", func(t *testing.T) {
		s := open(t)
		alice := seedUser(t, s)
		r := seedRecipe(t, s, alice.ID, "Pancakes")

		const n = 12
		users := make([]*models.User, n)
		for i := range users {
			users[i] = seedUser(t, s)
		}

		var wg sync.WaitGroup
		errs := make(chan error, n*2)
		for i, u := range users {
			toggles := 1 + i%2
			for k := 0; k < toggles; k++ {
				wg.Add(1)
				go func(id uuid.UUID) {
					defer wg.Done()
					if _, err := s.recipes.ToggleLike(ctx, r.ID, id); err != nil {
						errs <- err
					}
				}(u.ID)
			}
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var want []uuid.UUID
		for i, u := range users {
			if i%2 == 0 {
				want = append(want, u.ID)
			}
		}
		got, err := s.recipes.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, got.LikedBy)
		assert.Equal(t, len(want), got.Likes)
	})

	t.Run("favorites and stats", func(t *testing.T) {
		s := open(t)
		alice, bob, carol := seedUser(t, s), seedUser(t, s), seedUser(t, s)
		r1 := seedRecipe(t, s, alice.ID, "Pancakes")
		r2 := seedRecipe(t, s, alice.ID, "Waffles", func(r *models.Recipe) { r.CreatedAt = r1.CreatedAt.Add(time.Minute) })

		on, err := s.users.ToggleFavorite(ctx, bob.ID, r1.ID)
		require.NoError(t, err)
		assert.True(t, on)
		_, err = s.users.ToggleFavorite(ctx, bob.ID, r2.ID)
		require.NoError(t, err)
		_, err = s.users.ToggleFavorite(ctx, carol.ID, r1.ID)
		require.NoError(t, err)
		_, err = s.recipes.ToggleLike(ctx, r1.ID, bob.ID)
		require.NoError(t, err)
		_, err = s.recipes.ToggleLike(ctx, r2.ID, carol.ID)
		require.NoError(t, err)

		favs, err := s.recipes.ListFavorites(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Waffles", "Pancakes"}, titles(favs))

		u, err := s.users.FindByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{r1.ID, r2.ID}, u.Favorites)

		stats, err := s.users.Stats(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Stats{RecipesCreated: 2, TotalLikes: 2, TotalFavorites: 3}, stats)

		off, err := s.users.ToggleFavorite(ctx, bob.ID, r1.ID)
		require.NoError(t, err)
		assert.False(t, off)
		favs, err = s.recipes.ListFavorites(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Waffles"}, titles(favs))

		empty, err := s.users.Stats(ctx, carol.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Stats{}, empty)
	})

	t.Run("delete recipe drops references", func(t *testing.T) {
		s := open(t)
		alice, bob := seedUser(t, s), seedUser(t, s)
		r := seedRecipe(t, s, alice.ID, "Pancakes")
		_, err := s.users.ToggleFavorite(ctx, bob.ID, r.ID)
		require.NoError(t, err)

		require.NoError(t, s.recipes.Delete(ctx, r.ID))

		u, err := s.users.FindByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, u.Favorites)
	})

	t.Run("delete user cascades", func(t *testing.T) {
		s := open(t)
		alice, bob := seedUser(t, s), seedUser(t, s)
		aliceRecipe := seedRecipe(t, s, alice.ID, "Pancakes")
		bobRecipe := seedRecipe(t, s, bob.ID, "Waffles")

		_, err := s.users.ToggleFavorite(ctx, bob.ID, aliceRecipe.ID)
		require.NoError(t, err)
		_, err = s.recipes.ToggleLike(ctx, bobRecipe.ID, alice.ID)
		require.NoError(t, err)
		_, err = s.users.ToggleFavorite(ctx, alice.ID, bobRecipe.ID)
		require.NoError(t, err)

		require.NoError(t, s.users.Delete(ctx, alice.ID))

		owned, err := s.recipes.ListByOwner(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, owned)
		_, err = s.recipes.FindByID(ctx, aliceRecipe.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.users.FindByID(ctx, alice.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		u, err := s.users.FindByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, u.Favorites)

		w, err := s.recipes.FindByID(ctx, bobRecipe.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, w.Likes)
		assert.Empty(t, w.LikedBy)

		stats, err := s.users.Stats(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Stats{RecipesCreated: 1}, stats)

		assert.ErrorIs(t, s.users.Delete(ctx, alice.ID), ErrNotFound)
	})
}
