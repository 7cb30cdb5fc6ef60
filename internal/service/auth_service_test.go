package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gn-registry/internal/model"
)

type fakeAuthUserStore struct {
	users map[string]model.User
}

func newFakeAuthUserStore(users ...model.User) *fakeAuthUserStore {
	s := &fakeAuthUserStore{users: map[string]model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeAuthUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeAuthUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeAuthUserStore) IncrementFailedAttempts(_ context.Context, userID string) error {
	u := s.users[userID]
	u.FailedLoginAttempts++
	s.users[userID] = u
	return nil
}

func (s *fakeAuthUserStore) LockAccount(_ context.Context, userID string, until time.Time) error {
	u := s.users[userID]
	u.LockedUntil = &until
	s.users[userID] = u
	return nil
}

func (s *fakeAuthUserStore) ResetFailedAttempts(_ context.Context, userID string) error {
	u := s.users[userID]
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	s.users[userID] = u
	return nil
}

type fakeTokenStore struct {
	owners map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{owners: map[string]string{}}
}

func (s *fakeTokenStore) Store(_ context.Context, token string, userID string, _ time.Time) error {
	s.owners[token] = userID
	return nil
}

func (s *fakeTokenStore) Validate(_ context.Context, token string) (string, error) {
	owner, ok := s.owners[token]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	return owner, nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, token string) error {
	delete(s.owners, token)
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthService(t *testing.T, users *fakeAuthUserStore, tokens *fakeTokenStore, audit *fakeRecorder) *AuthService {
	t.Helper()
	svc, err := NewAuthService("test-secret", 15*time.Minute, 7*24*time.Hour, users, tokens, audit)
	require.NoError(t, err)
	return svc
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService("", time.Minute, time.Hour, newFakeAuthUserStore(), newFakeTokenStore(), &fakeRecorder{})
	assert.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	officer := model.User{
		ID: "u1", Username: "officer", Role: model.RoleGN, JurisdictionID: "g1",
		PasswordHash: "", IsActive: true,
	}

	t.Run("valid credentials issue a usable token pair", func(t *testing.T) {
		officer := officer
		officer.PasswordHash = mustHash(t, "correct-horse")
		users := newFakeAuthUserStore(officer)
		tokens := newFakeTokenStore()
		audit := &fakeRecorder{}
		svc := newAuthService(t, users, tokens, audit)

		pair, err := svc.Login(context.Background(), model.AuditActor{IP: "10.0.0.5"}, "officer", "correct-horse")
		require.NoError(t, err)

		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, int64(900), pair.ExpiresIn)
		assert.Equal(t, "u1", pair.User.ID)

		claims, err := svc.ValidateToken(pair.AccessToken, "access")
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, model.RoleGN, claims.Role)
		assert.Equal(t, "g1", claims.JurisdictionID)

		// The refresh token is registered for rotation.
		owner, err := tokens.Validate(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", owner)

		assert.Equal(t, "login", audit.last().ActionType)
	})

	t.Run("a wrong password counts toward the lockout", func(t *testing.T) {
		officer := officer
		officer.PasswordHash = mustHash(t, "correct-horse")
		users := newFakeAuthUserStore(officer)
		audit := &fakeRecorder{}
		svc := newAuthService(t, users, newFakeTokenStore(), audit)

		_, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "wrong")
		assert.Error(t, err)
		assert.Equal(t, 1, users.users["u1"].FailedLoginAttempts)
		assert.Nil(t, users.users["u1"].LockedUntil)
		assert.Equal(t, "login_failed", audit.last().ActionType)
	})

	t.Run("the fifth failure locks the account", func(t *testing.T) {
		officer := officer
		officer.PasswordHash = mustHash(t, "correct-horse")
		officer.FailedLoginAttempts = 4
		users := newFakeAuthUserStore(officer)
		svc := newAuthService(t, users, newFakeTokenStore(), &fakeRecorder{})

		_, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "wrong")
		assert.Error(t, err)
		require.NotNil(t, users.users["u1"].LockedUntil)
		assert.True(t, users.users["u1"].LockedUntil.After(time.Now().UTC()))

		_, err = svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
		assert.Error(t, err)
	})

	t.Run("a successful login clears the failure count", func(t *testing.T) {
		officer := officer
		officer.PasswordHash = mustHash(t, "correct-horse")
		officer.FailedLoginAttempts = 3
		users := newFakeAuthUserStore(officer)
		svc := newAuthService(t, users, newFakeTokenStore(), &fakeRecorder{})

		_, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
		require.NoError(t, err)
		assert.Zero(t, users.users["u1"].FailedLoginAttempts)
	})

	t.Run("a disabled account cannot log in", func(t *testing.T) {
		officer := officer
		officer.PasswordHash = mustHash(t, "correct-horse")
		officer.IsActive = false
		svc := newAuthService(t, newFakeAuthUserStore(officer), newFakeTokenStore(), &fakeRecorder{})

		_, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
		assert.Error(t, err)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	officer := model.User{ID: "u1", Username: "officer", Role: model.RoleGN, JurisdictionID: "g1",
		PasswordHash: "", IsActive: true}
	officer.PasswordHash = mustHash(t, "correct-horse")
	svc := newAuthService(t, newFakeAuthUserStore(officer), newFakeTokenStore(), &fakeRecorder{})

	pair, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
	require.NoError(t, err)

	t.Run("token type is enforced", func(t *testing.T) {
		_, err := svc.ValidateToken(pair.AccessToken, "refresh")
		assert.Error(t, err)
		_, err = svc.ValidateToken(pair.RefreshToken, "access")
		assert.Error(t, err)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token", "access")
		assert.Error(t, err)
	})

	t.Run("a token signed with another secret is rejected", func(t *testing.T) {
		other, err := NewAuthService("different-secret", time.Minute, time.Hour,
			newFakeAuthUserStore(), newFakeTokenStore(), &fakeRecorder{})
		require.NoError(t, err)

		_, err = other.ValidateToken(pair.AccessToken, "access")
		assert.Error(t, err)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	officer := model.User{ID: "u1", Username: "officer", Role: model.RoleGN, JurisdictionID: "g1", IsActive: true}
	officer.PasswordHash = mustHash(t, "correct-horse")

	t.Run("rotation revokes the exchanged token", func(t *testing.T) {
		users := newFakeAuthUserStore(officer)
		tokens := newFakeTokenStore()
		svc := newAuthService(t, users, tokens, &fakeRecorder{})

		pair, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
		require.NoError(t, err)

		next, err := svc.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// The first refresh token is single-use.
		_, err = svc.Refresh(context.Background(), pair.RefreshToken)
		assert.Error(t, err)

		// The rotated one still works.
		_, err = svc.Refresh(context.Background(), next.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("a deactivated user cannot refresh", func(t *testing.T) {
		users := newFakeAuthUserStore(officer)
		tokens := newFakeTokenStore()
		svc := newAuthService(t, users, tokens, &fakeRecorder{})

		pair, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
		require.NoError(t, err)

		u := users.users["u1"]
		u.IsActive = false
		users.users["u1"] = u

		_, err = svc.Refresh(context.Background(), pair.RefreshToken)
		assert.Error(t, err)
	})

	t.Run("an access token cannot be exchanged", func(t *testing.T) {
		svc := newAuthService(t, newFakeAuthUserStore(officer), newFakeTokenStore(), &fakeRecorder{})

		pair, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), pair.AccessToken)
		assert.Error(t, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	officer := model.User{ID: "u1", Username: "officer", Role: model.RoleGN, JurisdictionID: "g1", IsActive: true}
	officer.PasswordHash = mustHash(t, "correct-horse")
	tokens := newFakeTokenStore()
	svc := newAuthService(t, newFakeAuthUserStore(officer), tokens, &fakeRecorder{})

	pair, err := svc.Login(context.Background(), model.AuditActor{}, "officer", "correct-horse")
	require.NoError(t, err)

	svc.Logout(context.Background(), pair.RefreshToken)
	_, err = tokens.Validate(context.Background(), pair.RefreshToken)
	assert.Error(t, err)
}
