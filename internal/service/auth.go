package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pageza/pantrypal/backend/internal/models"
)

const (
	purposeSession = "session"
	purposeReset   = "reset"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies HS256 session and password-reset tokens.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

func NewTokenService(secret string, ttl, resetTTL time.Duration) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

func (s *TokenService) GenerateToken(userID uuid.UUID) (string, error) {
	return s.sign(jwt.MapClaims{
		"user_id": userID.String(),
		"purpose": purposeSession,
	}, s.ttl)
}

func (s *TokenService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims, err := s.parse(tokenString, purposeSession)
	if err != nil {
		return nil, err
	}
	userID, err := userIDClaim(claims)
	if err != nil {
		return nil, err
	}
	return &models.TokenClaims{UserID: userID}, nil
}

// GenerateResetToken mints a reset token bound to the user's current
// password hash. Once the password changes the token stops verifying.
func (s *TokenService) GenerateResetToken(user *models.User) (string, error) {
	return s.sign(jwt.MapClaims{
		"user_id": user.ID.String(),
		"purpose": purposeReset,
		"fp":      s.fingerprint(user.PasswordHash),
	}, s.resetTTL)
}

// ParseResetToken returns the user id and hash fingerprint of a reset token.
func (s *TokenService) ParseResetToken(tokenString string) (uuid.UUID, string, error) {
	claims, err := s.parse(tokenString, purposeReset)
	if err != nil {
		return uuid.Nil, "", err
	}
	userID, err := userIDClaim(claims)
	if err != nil {
		return uuid.Nil, "", err
	}
	fp, _ := claims["fp"].(string)
	if fp == "" {
		return uuid.Nil, "", ErrInvalidToken
	}
	return userID, fp, nil
}

// MatchesFingerprint reports whether fp was minted against passwordHash.
func (s *TokenService) MatchesFingerprint(fp, passwordHash string) bool {
	return hmac.Equal([]byte(fp), []byte(s.fingerprint(passwordHash)))
}

func (s *TokenService) fingerprint(passwordHash string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(passwordHash))
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

func (s *TokenService) sign(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	now := s.now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString, purpose string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func userIDClaim(claims jwt.MapClaims) (uuid.UUID, error) {
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, errors.New("invalid token claims")
	}
	return uuid.Parse(userIDStr)
}
