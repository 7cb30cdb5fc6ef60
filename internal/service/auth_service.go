package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gn-registry/internal/model"
	"gn-registry/pkg/apierror"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	IncrementFailedAttempts(ctx context.Context, userID string) error
	LockAccount(ctx context.Context, userID string, until time.Time) error
	ResetFailedAttempts(ctx context.Context, userID string) error
}

type tokenStore interface {
	Store(ctx context.Context, token string, userID string, expiresAt time.Time) error
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type AuthService struct {
	users      userStore
	tokens     tokenStore
	audit      recorder
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, users userStore, tokens tokenStore, audit recorder) (*AuthService, error) {
	if jwtSecret == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		audit:      audit,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, actor model.AuditActor, username string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}

	if !user.IsActive {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "account is disabled", "", http.StatusUnauthorized)
	}
	if user.LockedUntil != nil && user.LockedUntil.After(time.Now().UTC()) {
		return model.TokenPair{}, apierror.New("LOCKED", "account is temporarily locked", "", http.StatusUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		_ = s.users.IncrementFailedAttempts(ctx, user.ID)
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			_ = s.users.LockAccount(ctx, user.ID, time.Now().UTC().Add(lockoutDuration))
		}
		failedActor := actor
		failedActor.UserID = user.ID
		failedActor.Username = user.Username
		s.audit.Record(ctx, failedActor, "login_failed", "users", user.ID, nil, nil)
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}

	if err := s.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return model.TokenPair{}, err
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	loginActor := actor
	loginActor.UserID = user.ID
	loginActor.Username = user.Username
	loginActor.Role = user.Role
	s.audit.Record(ctx, loginActor, "login", "users", user.ID, nil, nil)
	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	ownerID, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil || ownerID != claims.UserID {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "refresh token is invalid", "", http.StatusUnauthorized)
	}

	// Single-use rotation: the old refresh token dies with this exchange.
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "user not found", "", http.StatusUnauthorized)
	}

	return s.issueTokenPair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	_ = s.tokens.Revoke(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}

	return model.AuthUser{
		ID:             user.ID,
		Username:       user.Username,
		Role:           user.Role,
		JurisdictionID: user.JurisdictionID,
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", "", http.StatusUnauthorized)
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.New("UNAUTHORIZED", "invalid or expired token", "", http.StatusUnauthorized)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.New("UNAUTHORIZED", "invalid token claims", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{
		UserID:         stringClaim(mapClaims, "sub"),
		Username:       stringClaim(mapClaims, "username"),
		Role:           stringClaim(mapClaims, "role"),
		JurisdictionID: stringClaim(mapClaims, "jur"),
		Type:           stringClaim(mapClaims, "typ"),
		TokenID:        stringClaim(mapClaims, "jti"),
	}

	if claims.UserID == "" || claims.Type != expectedType {
		return nil, apierror.New("UNAUTHORIZED", "invalid or expired token", "", http.StatusUnauthorized)
	}

	return claims, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user model.User) (model.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signToken(user, "access", now, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(user, "refresh", now, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Store(ctx, refreshToken, user.ID, now.Add(s.refreshTTL)); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User: model.AuthUser{
			ID:             user.ID,
			Username:       user.Username,
			Role:           user.Role,
			JurisdictionID: user.JurisdictionID,
		},
	}, nil
}

func (s *AuthService) signToken(user model.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      tokenType,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	if user.JurisdictionID != "" {
		claims["jur"] = user.JurisdictionID
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}
