package api_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageJSON struct {
	Recipes    []recipeJSON `json:"recipes"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

func (s *testServer) search(t *testing.T, query string) pageJSON {
	t.Helper()
	w := s.do(t, http.MethodGet, "/api/recipes?"+query, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page pageJSON
	decode(t, w, &page)
	return page
}

func TestRecipeLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "Alice"), s.register(t, "Bob")

	w := s.doMultipart(t, http.MethodPost, "/api/recipes", alice.Token, map[string]string{
		"title":       "Pancakes",
		"ingredients": "flour\r\nmilk\r\negg",
		"steps":       "mix\ncook",
		"cuisine":     "American",
		"dietType":    "Vegetarian",
		"cookingTime": "20",
	}, upload{"images", "stack.png", pngData}, upload{"images", "../../side view.png", pngData})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Message string     `json:"message"`
		Recipe  recipeJSON `json:"recipe"`
	}
	decode(t, w, &created)
	assert.Equal(t, "Recipe created successfully 🎉", created.Message)
	pancakes := created.Recipe
	assert.Equal(t, []string{"flour", "milk", "egg"}, pancakes.Ingredients)
	assert.Equal(t, []string{"mix", "cook"}, pancakes.Steps)
	assert.Equal(t, 20, pancakes.CookingTime)
	require.Len(t, pancakes.Images, 2)
	for _, img := range pancakes.Images {
		assert.True(t, strings.HasPrefix(img, "uploads/recipes/"), img)
		assert.FileExists(t, s.diskPath(img))
	}

	t.Run("get populates owner", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/recipes/"+pancakes.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got recipeJSON
		decode(t, w, &got)
		require.NotNil(t, got.Owner)
		assert.Equal(t, "Alice", got.Owner.Name)
		assert.Equal(t, alice.ID, got.OwnerID)
	})

	t.Run("whole word search", func(t *testing.T) {
		assert.EqualValues(t, 1, s.search(t, "search=egg").Total)
		assert.EqualValues(t, 1, s.search(t, "search=PANCAKES").Total)
		assert.EqualValues(t, 0, s.search(t, "search=eg").Total)
		assert.EqualValues(t, 1, s.search(t, "ingredients=milk,+egg&maxTime=30").Total)
		assert.EqualValues(t, 0, s.search(t, "ingredients=milk,butter").Total)
	})

	t.Run("like toggles", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/recipes/"+pancakes.ID+"/like", bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Recipe liked","likes":1,"liked":true}`, w.Body.String())

		w = s.do(t, http.MethodGet, "/api/recipes/liked", bob.Token, nil)
		var liked []recipeJSON
		decode(t, w, &liked)
		require.Len(t, liked, 1)
		assert.Equal(t, pancakes.ID, liked[0].ID)

		w = s.do(t, http.MethodPost, "/api/recipes/"+pancakes.ID+"/like", bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Like removed","likes":0,"liked":false}`, w.Body.String())
	})

	t.Run("favorite toggles", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/recipes/"+pancakes.ID+"/favorite", bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Recipe added to favorites","favorited":true}`, w.Body.String())

		for _, path := range []string{"/api/recipes/favorites", "/api/users/favorites"} {
			w = s.do(t, http.MethodGet, path, bob.Token, nil)
			var favs []recipeJSON
			decode(t, w, &favs)
			require.Len(t, favs, 1, path)
			assert.Equal(t, "Pancakes", favs[0].Title)
		}

		w = s.do(t, http.MethodPost, "/api/recipes/"+pancakes.ID+"/favorite", bob.Token, nil)
		assert.JSONEq(t, `{"message":"Recipe removed from favorites","favorited":false}`, w.Body.String())
	})

	t.Run("non-owner cannot modify", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/api/recipes/"+pancakes.ID, bob.Token, gin.H{"title": "Mine now"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You are not allowed to update this recipe", message(t, w))

		w = s.doMultipart(t, http.MethodPut, "/api/recipes/"+pancakes.ID, bob.Token, nil, upload{"images", "x.png", pngData})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do(t, http.MethodDelete, "/api/recipes/"+pancakes.ID, bob.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You are not allowed to delete this recipe", message(t, w))
	})

	t.Run("owner updates", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/api/recipes/"+pancakes.ID, alice.Token, gin.H{
			"title":  "Fluffy Pancakes",
			"steps":  "whisk\nrest\ncook",
			"images": pancakes.Images[:1],
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res struct {
			Message string     `json:"message"`
			Recipe  recipeJSON `json:"recipe"`
		}
		decode(t, w, &res)
		assert.Equal(t, "Recipe updated successfully", res.Message)
		assert.Equal(t, "Fluffy Pancakes", res.Recipe.Title)
		assert.Equal(t, []string{"whisk", "rest", "cook"}, res.Recipe.Steps)
		assert.Equal(t, []string{"flour", "milk", "egg"}, res.Recipe.Ingredients)
		assert.Equal(t, pancakes.Images[:1], res.Recipe.Images)
		assert.NoFileExists(t, s.diskPath(pancakes.Images[1]))

		w = s.doMultipart(t, http.MethodPut, "/api/recipes/"+pancakes.ID, alice.Token, nil, upload{"images", "more.png", pngData})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &res)
		require.Len(t, res.Recipe.Images, 2)
		assert.Equal(t, pancakes.Images[0], res.Recipe.Images[0])
		pancakes = res.Recipe
	})

	t.Run("owner deletes", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/api/recipes/"+pancakes.ID, alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Recipe deleted successfully", message(t, w))
		for _, img := range pancakes.Images {
			assert.NoFileExists(t, s.diskPath(img))
		}

		w = s.do(t, http.MethodGet, "/api/recipes/"+pancakes.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Recipe not found", message(t, w))
	})
}

func TestCreateRecipe_Rejections(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice")

	t.Run("requires auth", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/recipes", "", gin.H{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("required fields", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/recipes", alice.Token, gin.H{"title": "Toast", "ingredients": []string{"bread"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Title, ingredients, and steps are required", message(t, w))
	})

	t.Run("negative cooking time", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/recipes", alice.Token, gin.H{
			"title": "Toast", "ingredients": "bread", "steps": "toast", "cookingTime": -5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Cooking time cannot be negative", message(t, w))
	})

	t.Run("non numeric cooking time", func(t *testing.T) {
		w := s.doMultipart(t, http.MethodPost, "/api/recipes", alice.Token, map[string]string{
			"title": "Toast", "ingredients": "bread", "steps": "toast", "cookingTime": "soon",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Cooking time must be a number", message(t, w))
	})

	t.Run("non image upload", func(t *testing.T) {
		w := s.doMultipart(t, http.MethodPost, "/api/recipes", alice.Token, map[string]string{
			"title": "Toast", "ingredients": "bread", "steps": "toast",
		}, upload{"images", "ok.png", pngData}, upload{"images", "evil.png", []byte("#!/bin/sh\necho hi\n")})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Only image files are allowed", message(t, w))
	})

	t.Run("too many images", func(t *testing.T) {
		files := make([]upload, 11)
		for i := range files {
			files[i] = upload{"images", fmt.Sprintf("%d.png", i), pngData}
		}
		w := s.doMultipart(t, http.MethodPost, "/api/recipes", alice.Token, map[string]string{
			"title": "Toast", "ingredients": "bread", "steps": "toast",
		}, files...)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "A recipe can have at most 10 images", message(t, w))
	})

	t.Run("rejected creates leave no files", func(t *testing.T) {
		w := s.doMultipart(t, http.MethodPost, "/api/recipes", alice.Token, map[string]string{
			"ingredients": "bread", "steps": "toast",
		}, upload{"images", "orphan.png", pngData})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, listFiles(t, s.diskPath("uploads/recipes")))
	})

	t.Run("client image paths are ignored on create", func(t *testing.T) {
		r := s.createRecipe(t, alice.Token, "Toast", gin.H{"images": []string{"uploads/profile/someone.png"}})
		assert.Empty(t, r.Images)
	})
}

func TestRecipeIDs(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice")

	for _, path := range []string{"/api/recipes/not-a-uuid", "/api/recipes/" + uuid.NewString()} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Recipe not found", message(t, w))
	}

	w := s.do(t, http.MethodPost, "/api/recipes/"+uuid.NewString()+"/like", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodPost, "/api/recipes/"+uuid.NewString()+"/favorite", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecipes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice")
	for i := 0; i < 15; i++ {
		s.createRecipe(t, alice.Token, fmt.Sprintf("Soup %02d", i), gin.H{"cookingTime": i})
	}

	page := s.search(t, "page=2&limit=10")
	assert.EqualValues(t, 15, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Recipes, 5)

	page = s.search(t, "sort=time&limit=3")
	require.Len(t, page.Recipes, 3)
	assert.Equal(t, "Soup 00", page.Recipes[0].Title)

	page = s.search(t, "maxTime=4")
	assert.EqualValues(t, 5, page.Total)

	page = s.search(t, "page=abc&limit=-1")
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Recipes, 1)
	assert.Equal(t, 15, page.TotalPages)

	w := s.do(t, http.MethodGet, "/api/recipes/my", alice.Token, nil)
	var mine []recipeJSON
	decode(t, w, &mine)
	assert.Len(t, mine, 15)
}
