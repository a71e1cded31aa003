package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/repository"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

const MinPasswordLength = 6

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	User  *models.User
	Token string
}

// ProfileUpdate carries the editable profile fields. Empty means unchanged.
type ProfileUpdate struct {
	Name  string
	Email string
}

var validate = validator.New()

type UserService struct {
	users       repository.UserRepository
	recipes     repository.RecipeRepository
	tokens      *TokenService
	email       IEmailService
	storage     storage.Storage
	frontendURL string
}

func NewUserService(
	users repository.UserRepository,
	recipes repository.RecipeRepository,
	tokens *TokenService,
	email IEmailService,
	store storage.Storage,
	frontendURL string,
) *UserService {
	return &UserService{
		users:       users,
		recipes:     recipes,
		tokens:      tokens,
		email:       email,
		storage:     store,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, models.NewValidationError("Password must be at least 6 characters")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, models.NewConflictError("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, models.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("User already exists")
		}
		return nil, models.NewInternalError(err)
	}

	return s.authResult(user)
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewUnauthorizedError("Invalid email or password")
		}
		return nil, models.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return s.authResult(user)
}

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// RequestPasswordReset mails a reset link. Unknown addresses get NotFound.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return userError(err)
	}

	token, err := s.tokens.GenerateResetToken(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	resetURL := s.frontendURL + "/reset-password/" + token
	if err := s.email.SendPasswordResetEmail(ctx, user, resetURL); err != nil {
		return models.NewInternalError(err)
	}

	log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("password reset requested")
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, fp, err := s.tokens.ParseResetToken(token)
	if err != nil {
		return models.NewUnauthorizedError("Invalid or expired token")
	}
	if len(newPassword) < MinPasswordLength {
		return models.NewValidationError("Password must be at least 6 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewUnauthorizedError("Invalid or expired token")
		}
		return models.NewInternalError(err)
	}
	if !s.tokens.MatchesFingerprint(fp, user.PasswordHash) {
		return models.NewUnauthorizedError("Invalid or expired token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return userError(err)
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Profile{User: user, Stats: stats}, nil
}

func (s *UserService) GetStats(ctx context.Context, userID uuid.UUID) (models.Stats, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return models.Stats{}, err
	}
	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		return models.Stats{}, models.NewInternalError(err)
	}
	return stats, nil
}

// UpdateProfile applies the non-empty fields and, when newImagePath is set,
// swaps the profile image and removes the previous file.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate, newImagePath string) (*models.User, error) {
	user, err := s.updateProfile(ctx, userID, update, newImagePath)
	if err != nil {
		if newImagePath != "" {
			s.removeAssets(ctx, newImagePath)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) updateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate, newImagePath string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}
	if email := models.NormalizeEmail(update.Email); email != "" && email != user.Email {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if other, err := s.users.FindByEmail(ctx, email); err == nil && other.ID != user.ID {
			return nil, models.NewConflictError("Email already in use")
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewInternalError(err)
		}
		user.Email = email
	}

	oldImage := ""
	if newImagePath != "" {
		oldImage = user.ProfileImage
		user.ProfileImage = newImagePath
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Email already in use")
		}
		return nil, userError(err)
	}
	if oldImage != "" && oldImage != newImagePath {
		s.removeAssets(ctx, oldImage)
	}
	return user, nil
}

// DeleteAccount removes the user, their recipes and every like and favorite
// that referenced either, then cleans up their stored images.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	owned, err := s.recipes.ListByOwner(ctx, userID)
	if err != nil {
		return models.NewInternalError(err)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return userError(err)
	}

	var assets []string
	for _, r := range owned {
		assets = append(assets, r.Images...)
	}
	if user.ProfileImage != "" {
		assets = append(assets, user.ProfileImage)
	}
	s.removeAssets(ctx, assets...)

	log.Ctx(ctx).Info().
		Str("user_id", userID.String()).
		Int("recipes_deleted", len(owned)).
		Msg("account deleted")
	return nil
}

func (s *UserService) ListUserRecipes(ctx context.Context, userID uuid.UUID) (*models.UserRecipes, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipes, err := s.recipes.ListByOwner(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.UserRecipes{
		Username:     user.Name,
		TotalRecipes: len(recipes),
		Recipes:      recipes,
	}, nil
}

func (s *UserService) removeAssets(ctx context.Context, paths ...string) {
	removeAssets(ctx, s.storage, paths...)
}

// removeAssets deletes stored files; failures are logged and otherwise ignored.
func removeAssets(ctx context.Context, store storage.Storage, paths ...string) {
	if store == nil {
		return
	}
	for _, p := range paths {
		if err := store.Delete(ctx, p); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("failed to remove asset")
		}
	}
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return models.NewValidationError("Please provide a valid email")
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("User not found")
	}
	return models.NewInternalError(err)
}
