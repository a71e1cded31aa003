package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pageza/pantrypal/backend/config"
	"github.com/pageza/pantrypal/backend/internal/logger"
	"github.com/pageza/pantrypal/backend/internal/repository"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

const seedPassword = "password123"

var (
	cuisines  = []string{"Italian", "Mexican", "Indian", "Japanese", "French", "Thai", "Greek", "American"}
	dietTypes = []string{"Vegetarian", "Vegan", "Keto", "Gluten-Free", "Paleo", "Omnivore"}
	dishes    = []string{"Pasta", "Curry", "Soup", "Salad", "Tacos", "Stew", "Cake", "Pancakes", "Risotto", "Stir Fry"}
)

func main() {
	numUsers := flag.Int("users", 5, "Number of users to create")
	numRecipes := flag.Int("recipes", 25, "Number of recipes to create")
	seed := flag.Int64("seed", 0, "Random seed, 0 for a random one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.Env.IsDevelopment())
	gofakeit.Seed(*seed)

	ctx := context.Background()
	stores, err := repository.Open(ctx, cfg, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer stores.Close(ctx)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.ResetTokenTTL)
	users := service.NewUserService(stores.Users, stores.Recipes, tokens, service.NewEmailService(cfg), store, cfg.FrontendURL)
	recipes := service.NewRecipeService(stores.Recipes, stores.Users, store)

	userIDs := make([]uuid.UUID, 0, *numUsers)
	for i := 0; i < *numUsers; i++ {
		email := fmt.Sprintf("seed%d.%s", i+1, strings.ToLower(gofakeit.Email()))
		res, err := users.Register(ctx, gofakeit.Name(), email, seedPassword)
		if err != nil {
			log.Fatal().Err(err).Str("email", email).Msg("failed to create user")
		}
		userIDs = append(userIDs, res.User.ID)
		log.Info().Str("email", res.User.Email).Msg("created user")
	}
	if len(userIDs) == 0 {
		log.Info().Msg("no users requested, nothing to seed")
		return
	}

	recipeIDs := make([]uuid.UUID, 0, *numRecipes)
	for i := 0; i < *numRecipes; i++ {
		owner := userIDs[gofakeit.Number(0, len(userIDs)-1)]
		recipe, err := recipes.Create(ctx, owner, fakeRecipe())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create recipe")
		}
		recipeIDs = append(recipeIDs, recipe.ID)
	}
	log.Info().Int("count", len(recipeIDs)).Msg("created recipes")

	var likes, favorites int
	for _, userID := range userIDs {
		for _, recipeID := range recipeIDs {
			if gofakeit.Bool() && gofakeit.Bool() {
				if _, err := recipes.ToggleLike(ctx, recipeID, userID); err != nil {
					log.Fatal().Err(err).Msg("failed to like recipe")
				}
				likes++
			}
			if gofakeit.Number(1, 5) == 1 {
				if _, err := recipes.ToggleFavorite(ctx, userID, recipeID); err != nil {
					log.Fatal().Err(err).Msg("failed to favorite recipe")
				}
				favorites++
			}
		}
	}

	log.Info().
		Int("users", len(userIDs)).
		Int("recipes", len(recipeIDs)).
		Int("likes", likes).
		Int("favorites", favorites).
		Str("password", seedPassword).
		Msg("seeding complete")
}

func fakeRecipe() service.RecipeInput {
	ingredients := make([]string, gofakeit.Number(3, 8))
	for i := range ingredients {
		ingredients[i] = fmt.Sprintf("%d %s %s", gofakeit.Number(1, 4), gofakeit.RandomString([]string{"cup", "tbsp", "tsp", "g"}), gofakeit.Noun())
	}
	steps := make([]string, gofakeit.Number(2, 6))
	for i := range steps {
		steps[i] = gofakeit.Sentence(gofakeit.Number(6, 12))
	}
	cuisine := gofakeit.RandomString(cuisines)
	return service.RecipeInput{
		Title:       fmt.Sprintf("%s %s %s", gofakeit.Adjective(), cuisine, gofakeit.RandomString(dishes)),
		Ingredients: ingredients,
		Steps:       steps,
		Cuisine:     cuisine,
		DietType:    gofakeit.RandomString(dietTypes),
		CookingTime: gofakeit.Number(5, 120),
		Images:      []string{},
	}
}
