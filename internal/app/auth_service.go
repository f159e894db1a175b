package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// AuthService registers accounts and exchanges credentials for bearer tokens.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, now: time.Now}
}

// Register creates an account. A taken username yields domain.ErrConflict and leaves the
// existing account untouched.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || role == "" {
		return domain.Identity{}, domain.Invalid("all fields are required")
	}
	if !role.Valid() {
		return domain.Identity{}, domain.Invalid("role must be %q or %q", domain.RoleStudent, domain.RoleTeacher)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Identity{}, err
	}
	err = s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, fmt.Errorf("create user: %w", err)
	}
	return domain.Identity{Username: username, Role: role}, nil
}

// Login verifies the password and issues a token. Unknown users and wrong passwords are
// both reported as domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", domain.Identity{}, domain.ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.Identity{}, domain.ErrInvalidCredentials
		}
		return "", domain.Identity{}, fmt.Errorf("find user: %w", err)
	}
	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", domain.Identity{}, err
	}
	if !ok {
		return "", domain.Identity{}, domain.ErrInvalidCredentials
	}

	identity := domain.Identity{Username: user.Username, Role: user.Role}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return "", domain.Identity{}, err
	}
	return token, identity, nil
}

// Authenticate resolves a bearer token to the caller's identity without touching the store.
func (s *AuthService) Authenticate(token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}
