package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mindmeet/mindmeet/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 8

// ResetTokenTTL is how long a password-reset token stays valid.
const ResetTokenTTL = time.Hour

const (
	purposeAccess = "access"
	purposeReset  = "password_reset"
)

// tokenClaims is the JWT payload. Subject carries the user's email.
type tokenClaims struct {
	UserID  int64  `json:"uid,omitempty"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// AuthResult is a freshly issued access token and the identity it belongs to.
type AuthResult struct {
	Token string
	User  *domain.User
}

// AuthService handles user registration, login, password reset and JWT token
// operations.
type AuthService struct {
	users      domain.UserRepository
	roles      domain.RoleRepository
	notifier   domain.Notifier
	jwtSecret  []byte
	bcryptCost int
	tokenTTL   time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, roles domain.RoleRepository, notifier domain.Notifier, jwtSecret string, bcryptCost int, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		notifier:   notifier,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		tokenTTL:   tokenTTL,
	}
}

// Authenticate verifies credentials and issues an access token. Unknown
// email, wrong password and inactive account all yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.accessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate jwt: %w", err)
	}

	slog.Info("user authenticated", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// Register creates an active LOCAL account with the default role and issues
// an access token. The welcome notification is best-effort.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: full name and email are required", domain.ErrInvalidInput)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRole(ctx, domain.DefaultRole); err != nil {
		return nil, err
	}

	user := &domain.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Provider:     domain.AuthProviderLocal,
		Roles:        []string{domain.DefaultRole},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.accessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate jwt: %w", err)
	}

	if err := s.notifier.Welcome(ctx, user); err != nil {
		slog.Warn("welcome notification failed", "user_id", user.ID, "error", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// RequestPasswordReset issues a one-hour reset token and sends it to the
// user. Delivery failure is returned as ErrNotification.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := s.signToken(tokenClaims{Purpose: purposeReset}, user.Email, ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.notifier.PasswordReset(ctx, user, token); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotification, err)
	}
	return nil
}

// ResetPassword replaces the password of the user named by a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.parse(resetToken, purposeReset)
	if err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// ValidateToken reports whether tokenString is a valid, unexpired access token.
func (s *AuthService) ValidateToken(tokenString string) bool {
	_, err := s.parse(tokenString, purposeAccess)
	return err == nil
}

// Identify resolves an access token to its active user.
func (s *AuthService) Identify(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.parse(tokenString, purposeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

// AuthenticateWithProvider signs a user in through an external identity
// provider. No provider is available yet.
func (s *AuthService) AuthenticateWithProvider(ctx context.Context, provider, token string) (*AuthResult, error) {
	return nil, fmt.Errorf("%w: social login with %q", domain.ErrUnsupported, provider)
}

// SetUserActive enables or disables login for a user.
func (s *AuthService) SetUserActive(ctx context.Context, userID int64, active bool) error {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("set user active: %w", err)
	}
	slog.Info("user active flag changed", "user_id", userID, "active", active)
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *AuthService) hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ensureRole creates the named role if the catalog does not have it yet.
func (s *AuthService) ensureRole(ctx context.Context, name string) error {
	_, err := s.roles.GetByName(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get role: %w", err)
	}

	if err := s.roles.Create(ctx, &domain.Role{Name: name}); err != nil {
		// Another registration may have created it concurrently.
		if _, getErr := s.roles.GetByName(ctx, name); getErr == nil {
			return nil
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (s *AuthService) accessToken(user *domain.User) (string, error) {
	return s.signToken(tokenClaims{
		UserID:  user.ID,
		Name:    user.FullName,
		Purpose: purposeAccess,
	}, user.Email, s.tokenTTL)
}

func (s *AuthService) signToken(claims tokenClaims, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parse(tokenString, purpose string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
