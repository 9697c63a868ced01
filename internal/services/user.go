package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wanderblog/apiserver/internal/apperr"
	"github.com/wanderblog/apiserver/internal/store"
	"github.com/wanderblog/apiserver/internal/token"
	"github.com/wanderblog/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	fullNameMinLen   = 3
	fullNameMaxLen   = 15
	passwordMinLen   = 8
	resetTokenExpiry = 15 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (types.User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetRefreshToken(ctx context.Context, id int64, token string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiry time.Time) error
}

// TokenPair bundles the access and refresh tokens issued for a session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionCheck reports the outcome of VerifyOrRefresh: the tokens the
// caller should use and which of them were freshly issued (and therefore
// need their cookies set).
type SessionCheck struct {
	AccessToken   string
	RefreshToken  string
	IssuedAccess  bool
	IssuedRefresh bool
}

// UserService orchestrates the session lifecycle: signup, signin, token
// refresh, and logout.
type UserService struct {
	repo   UserRepository
	tokens *token.Service
	logger *slog.Logger
}

func NewUserService(repo UserRepository, tokens *token.Service, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{repo: repo, tokens: tokens, logger: logger}
}

// SignUp registers a new user and opens a session for it. The returned
// user never carries the password; the refresh token is persisted as the
// user's single active session.
func (s *UserService) SignUp(ctx context.Context, userName, fullName, email, password string) (types.User, TokenPair, error) {
	userName = strings.ToLower(strings.TrimSpace(userName))
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if userName == "" || fullName == "" || email == "" || password == "" {
		return types.User{}, TokenPair{}, apperr.Validation("all fields are required")
	}

	existing, err := s.repo.GetByUsernameOrEmail(ctx, userName, email)
	if err == nil {
		// Username collision wins when both fields collide.
		if existing.Username == userName {
			return types.User{}, TokenPair{}, apperr.Conflict("username already exists")
		}
		return types.User{}, TokenPair{}, apperr.Conflict("email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, TokenPair{}, apperr.Internal("failed to check user", err)
	}

	if violations := validateSignUp(fullName, email, password); len(violations) > 0 {
		return types.User{}, TokenPair{}, apperr.Validation("invalid signup details", violations...)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, TokenPair{}, apperr.Internal("failed to create user", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     userName,
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         types.RoleUser,
	})
	if err != nil {
		return types.User{}, TokenPair{}, apperr.Internal("failed to create user", err)
	}

	pair, err := s.openSession(ctx, &user)
	if err != nil {
		return types.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// SignIn authenticates by username or email. A missing user and a wrong
// password produce the same error so accounts cannot be enumerated.
func (s *UserService) SignIn(ctx context.Context, userNameOrEmail, password string) (types.User, TokenPair, error) {
	userNameOrEmail = strings.TrimSpace(userNameOrEmail)
	if userNameOrEmail == "" || password == "" {
		return types.User{}, TokenPair{}, apperr.Validation("all fields are required")
	}

	user, err := s.repo.GetByLogin(ctx, userNameOrEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, TokenPair{}, apperr.Auth("invalid username/email or password")
		}
		return types.User{}, TokenPair{}, apperr.Internal("failed to sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, TokenPair{}, apperr.Auth("invalid username/email or password")
	}

	pair, err := s.openSession(ctx, &user)
	if err != nil {
		return types.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// SignOut clears the stored refresh token, ending the user's session.
// The caller clears cookies only after this succeeds.
func (s *UserService) SignOut(ctx context.Context, userID int64) error {
	if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
		return apperr.Internal("logout failed", err)
	}
	return nil
}

// VerifyOrRefresh walks the session-validity fallback chain:
//
//  1. a verifiable access cookie is echoed back, nothing issued;
//  2. a verifiable refresh cookie mints a new access token only;
//  3. the user's stored refresh token, if verifiable, rotates both tokens.
//
// Verification failures in steps 1 and 2 are logged and fall through to
// the next step; only the final step's failure is terminal.
func (s *UserService) VerifyOrRefresh(ctx context.Context, userID int64, accessCookie, refreshCookie string) (SessionCheck, error) {
	if accessCookie != "" {
		if _, err := s.tokens.Verify(accessCookie); err == nil {
			return SessionCheck{AccessToken: accessCookie}, nil
		} else {
			s.logger.Warn("access token verification failed", "user", userID, "error", err)
		}
	}

	if refreshCookie != "" {
		if _, err := s.tokens.Verify(refreshCookie); err == nil {
			user, err := s.repo.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return SessionCheck{}, apperr.NotFound("user does not exist")
				}
				return SessionCheck{}, apperr.Internal("failed to load user", err)
			}

			access, err := s.tokens.IssueAccess(user)
			if err != nil {
				return SessionCheck{}, apperr.Internal("failed to create token", err)
			}
			return SessionCheck{AccessToken: access, IssuedAccess: true}, nil
		} else {
			s.logger.Warn("refresh token verification failed", "user", userID, "error", err)
		}
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SessionCheck{}, apperr.NotFound("user does not exist")
		}
		return SessionCheck{}, apperr.Internal("failed to load user", err)
	}

	if user.RefreshToken == "" {
		return SessionCheck{}, apperr.Auth("invalid token, please login again")
	}
	if _, err := s.tokens.Verify(user.RefreshToken); err != nil {
		s.logger.Warn("stored refresh token verification failed", "user", userID, "error", err)
		return SessionCheck{}, apperr.Auth("invalid token, please login again")
	}

	pair, err := s.openSession(ctx, &user)
	if err != nil {
		return SessionCheck{}, err
	}
	return SessionCheck{
		AccessToken:   pair.AccessToken,
		RefreshToken:  pair.RefreshToken,
		IssuedAccess:  true,
		IssuedRefresh: true,
	}, nil
}

// GetByID loads a user, mapping a repository miss to a not-found error.
func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user does not exist")
		}
		return types.User{}, apperr.Internal("failed to load user", err)
	}
	return user, nil
}

// GenerateResetToken creates a password-reset token, storing only its
// SHA-256 hash with a bounded expiry. Delivery is out of scope; the raw
// token is returned to the caller.
func (s *UserService) GenerateResetToken(ctx context.Context, userNameOrEmail string) (string, error) {
	user, err := s.repo.GetByLogin(ctx, strings.TrimSpace(userNameOrEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.NotFound("user does not exist")
		}
		return "", apperr.Internal("failed to load user", err)
	}

	raw := uuid.NewString()
	sum := sha256.Sum256([]byte(raw))
	expiry := time.Now().Add(resetTokenExpiry)
	if err := s.repo.SetResetToken(ctx, user.ID, hex.EncodeToString(sum[:]), expiry); err != nil {
		return "", apperr.Internal("failed to store reset token", err)
	}
	return raw, nil
}

// openSession issues both tokens and persists the refresh token as the
// user's single active session, overwriting any previous one.
func (s *UserService) openSession(ctx context.Context, user *types.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(*user)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to create token", err)
	}
	refresh, err := s.tokens.IssueRefresh(*user)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to create token", err)
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, apperr.Internal("failed to store refresh token", err)
	}
	user.RefreshToken = refresh

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func validateSignUp(fullName, email, password string) []string {
	var violations []string

	if len(fullName) < fullNameMinLen {
		violations = append(violations, "name must be at least 3 characters")
	}
	if len(fullName) > fullNameMaxLen {
		violations = append(violations, "name should be less than 15 characters")
	}
	if !emailPattern.MatchString(strings.ToLower(email)) {
		violations = append(violations, "please enter a valid email address")
	}
	violations = append(violations, validatePassword(password)...)

	return violations
}

func validatePassword(password string) []string {
	var violations []string

	if len(password) < passwordMinLen {
		violations = append(violations, "password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune("#?!@$%^&*-", r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		violations = append(violations, "password must contain at least one uppercase, one lowercase, one digit, and one special character")
	}

	return violations
}
