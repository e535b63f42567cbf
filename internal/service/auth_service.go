package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/knowledgehub/internal/apperr"
	"github.com/iliyamo/knowledgehub/internal/model"
	"github.com/iliyamo/knowledgehub/internal/repository"
	"github.com/iliyamo/knowledgehub/internal/utils"
)

// UserStore is the subset of the user repository the auth flows need.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// Revoker records and checks revoked tokens.
type Revoker interface {
	Revoke(ctx context.Context, token string, exp time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      model.UserSummary `json:"user"`
}

// AuthService drives signup, login, logout and per-request authentication.
// Each token moves from authenticated to revoked at most once; a user may
// hold several independent tokens.
type AuthService struct {
	users       UserStore
	hasher      *utils.PasswordHasher
	tokens      *utils.TokenIssuer
	revocations Revoker
	log         *slog.Logger

	// compared against when the email is unknown so both login failures cost
	// one bcrypt comparison
	dummyHash string
}

func NewAuthService(users UserStore, hasher *utils.PasswordHasher, tokens *utils.TokenIssuer, revocations Revoker, log *slog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash("knowledgehub-dummy-password-0")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		log:         log,
		dummyHash:   dummy,
	}, nil
}

// Signup registers a user and returns the new id. Email uniqueness is
// checked before username; the unique keys in storage are the final word
// when two signups race.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (uint64, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return 0, apperr.Conflict("Email already in use")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, apperr.Internal("lookup email", err)
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return 0, apperr.Conflict("Username already taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, apperr.Internal("lookup username", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, apperr.Internal("hash password", err)
	}
	id, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, apperr.Conflict("Email or username already in use")
		}
		return 0, apperr.Internal("create user", err)
	}
	s.log.InfoContext(ctx, "user registered", "user_id", id)
	return id, nil
}

// Login returns a fresh token. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return LoginResult{}, apperr.InvalidCredentials()
		}
		return LoginResult{}, apperr.Internal("lookup user", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return LoginResult{}, apperr.InvalidCredentials()
	}

	tok, err := s.tokens.Issue(utils.Identity{UserID: u.ID, Username: u.Username}, s.tokens.TTL())
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token", err)
	}
	return LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: u.Summary()}, nil
}

// Logout revokes token until its encoded expiry. It is only reached through
// Authenticate, so the payload is read without verifying the signature again.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.DecodeUnverified(token)
	if err != nil {
		return apperr.InvalidToken(err)
	}
	exp := claims.Expiry()
	if exp.IsZero() {
		return apperr.InvalidToken(errors.New("token has no expiry"))
	}
	if err := s.revocations.Revoke(ctx, token, exp); err != nil {
		return apperr.Internal("revoke token", err)
	}
	return nil
}

// Authenticate verifies token and then checks the revocation registry. Both
// must pass before the identity is trusted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (utils.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return utils.Identity{}, apperr.InvalidToken(err)
	}
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return utils.Identity{}, apperr.Internal("check revocation", err)
	}
	if revoked {
		return utils.Identity{}, apperr.RevokedToken()
	}
	return claims.Identity(), nil
}
