package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gn-registry/internal/model"
	"gn-registry/pkg/apierror"
)

type userAdminStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, u model.User) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	List(ctx context.Context, q model.UserQuery) ([]model.User, model.Meta, error)
}

type tokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

type jurisdictionFinder interface {
	FindByID(ctx context.Context, id string) (model.Jurisdiction, error)
}

type RegisterInput struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	JurisdictionID string `json:"jurisdiction_id"`
}

type UserService struct {
	users         userAdminStore
	tokens        tokenRevoker
	jurisdictions jurisdictionFinder
	audit         recorder
}

func NewUserService(users userAdminStore, tokens tokenRevoker, jurisdictions jurisdictionFinder, audit recorder) *UserService {
	return &UserService{users: users, tokens: tokens, jurisdictions: jurisdictions, audit: audit}
}

func (s *UserService) Register(ctx context.Context, actor model.AuditActor, in RegisterInput) (model.User, error) {
	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	if len(in.Username) < 3 {
		return model.User{}, apierror.BadRequest("username must be at least 3 characters", "")
	}
	if len(in.Password) < 8 {
		return model.User{}, apierror.BadRequest("password must be at least 8 characters", "")
	}

	if err := s.validateAssignment(ctx, in.Role, in.JurisdictionID); err != nil {
		return model.User{}, err
	}

	exists, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return model.User{}, fmt.Errorf("checking username: %w", err)
	}
	if exists {
		return model.User{}, apierror.Conflict("username already taken", in.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:             uuid.NewString(),
		Username:       in.Username,
		PasswordHash:   string(hash),
		Role:           in.Role,
		JurisdictionID: in.JurisdictionID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}

	s.audit.Record(ctx, actor, "create", "users", user.ID, nil, map[string]any{
		"username":        user.Username,
		"role":            user.Role,
		"jurisdiction_id": user.JurisdictionID,
	})
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, q model.UserQuery) ([]model.User, model.Meta, error) {
	return s.users.List(ctx, q)
}

// UpdateAssignment moves an account to a different role or home jurisdiction.
// Existing sessions keep their old claims until the tokens expire, so the
// caller revokes refresh tokens to force a re-login.
func (s *UserService) UpdateAssignment(ctx context.Context, actor model.AuditActor, id string, role string, jurisdictionID string) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if err := s.validateAssignment(ctx, role, jurisdictionID); err != nil {
		return model.User{}, err
	}

	old := map[string]any{"role": user.Role, "jurisdiction_id": user.JurisdictionID}
	user.Role = role
	user.JurisdictionID = jurisdictionID
	if err := s.users.Update(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("updating user: %w", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return model.User{}, fmt.Errorf("revoking tokens: %w", err)
	}

	s.audit.Record(ctx, actor, "update", "users", user.ID, old, map[string]any{
		"role":            user.Role,
		"jurisdiction_id": user.JurisdictionID,
	})
	return user, nil
}

func (s *UserService) SetStatus(ctx context.Context, actor model.AuditActor, id string, active bool) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsActive == active {
		return nil
	}

	if err := s.users.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	if !active {
		if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
			return fmt.Errorf("revoking tokens: %w", err)
		}
	}

	s.audit.Record(ctx, actor, "status_change", "users", id,
		map[string]any{"is_active": user.IsActive},
		map[string]any{"is_active": active})
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, actor model.AuditActor, id string, newPassword string) error {
	if len(newPassword) < 8 {
		return apierror.BadRequest("password must be at least 8 characters", "")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("revoking tokens: %w", err)
	}

	s.audit.Record(ctx, actor, "password_reset", "users", user.ID, nil, nil)
	return nil
}

// validateAssignment checks that the role is known and that the home
// jurisdiction sits at the tier the role governs. A moha account has no
// home jurisdiction at all.
func (s *UserService) validateAssignment(ctx context.Context, role string, jurisdictionID string) error {
	level, ok := model.RoleLevel(role)
	if !ok {
		return apierror.BadRequest("unknown role", role)
	}

	if role == model.RoleMOHA {
		if jurisdictionID != "" {
			return apierror.BadRequest("a national account cannot have a home jurisdiction", "")
		}
		return nil
	}

	if jurisdictionID == "" {
		return apierror.BadRequest("a home jurisdiction is required for this role", role)
	}
	jur, err := s.jurisdictions.FindByID(ctx, jurisdictionID)
	if err != nil {
		return apierror.BadRequest("home jurisdiction not found", jurisdictionID)
	}
	if jur.Level != level {
		return apierror.BadRequest(fmt.Sprintf("role %s requires a %s level jurisdiction", role, level), "")
	}
	return nil
}
