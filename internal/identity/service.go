package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/avelasov/techstore/internal/hash"
	"github.com/avelasov/techstore/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service implements Provider against the users table with HS256
// access/refresh cookie tokens, in the shape of a hosted auth provider:
// callers sign in/up/out through it and observe session changes through
// OnSessionChange.
type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte

	notifier notifier
}

func (s *Service) SignUp(ctx context.Context, email, password, name string) (*Identity, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var existing models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		Name:         name,
		Role:         "customer",
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*TokenPair, *Identity, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	ident := &Identity{UserID: user.ID, Email: user.Email}
	s.notifier.notify(EventSignedIn, ident)
	return pair, ident, nil
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	ident, _ := s.identityFromRefresh(ctx, refreshToken)
	if refreshToken != "" {
		err := s.DB.WithContext(ctx).
			Model(&models.RefreshToken{}).
			Where("token = ?", refreshToken).
			Update("revoked", true).Error
		if err != nil {
			return err
		}
	}
	s.notifier.notify(EventSignedOut, ident)
	return nil
}

// Refresh rotates the refresh token and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *Identity, error) {
	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	var stored models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", refreshToken).First(&stored).Error; err != nil {
		return nil, nil, ErrInvalidRefresh
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, nil, ErrInvalidRefresh
	}

	userID := uint(claims["sub"].(float64))
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, nil, ErrInvalidRefresh
	}

	if err := s.DB.WithContext(ctx).Model(&stored).Update("revoked", true).Error; err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	ident := &Identity{UserID: user.ID, Email: user.Email}
	s.notifier.notify(EventTokenRefreshed, ident)
	return pair, ident, nil
}

func (s *Service) GetSession(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, nil
	}
	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	return &Identity{UserID: uint(sub), Email: email}, nil
}

func (s *Service) OnSessionChange(fn func(Event, *Identity)) *Subscription {
	return s.notifier.subscribe(fn)
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessExp := time.Now().Add(accessTTL)
	accessClaims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   accessExp.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("cannot sign access token: %w", err)
	}

	refreshExp := time.Now().Add(refreshTTL)
	refreshClaims := jwt.MapClaims{
		"sub": user.ID,
		"exp": refreshExp.Unix(),
		"typ": "refresh",
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("cannot sign refresh token: %w", err)
	}

	record := models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("cannot persist refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) parseRefresh(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidRefresh
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidRefresh
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, ErrInvalidRefresh
	}
	if _, ok := claims["sub"].(float64); !ok {
		return nil, ErrInvalidRefresh
	}
	return claims, nil
}

func (s *Service) identityFromRefresh(ctx context.Context, raw string) (*Identity, error) {
	claims, err := s.parseRefresh(raw)
	if err != nil {
		return nil, err
	}
	userID := uint(claims["sub"].(float64))
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return &Identity{UserID: userID}, nil
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}
