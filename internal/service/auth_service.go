package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"asur-wears/internal/auth"
	"asur-wears/internal/models"
	"asur-wears/internal/store"
	"asur-wears/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// Credentials is a bootstrap staff account from configuration
type Credentials struct {
	Email    string
	Password string
}

// AuthService handles accounts and sessions
type AuthService struct {
	users    UserStore
	tokens   *auth.TokenManager
	admin    Credentials
	manager  Credentials
	hashCost int
	logger   *zap.Logger
}

// NewAuthService creates a new auth service. The admin and manager
// credentials create the matching staff account on its first login.
func NewAuthService(users UserStore, tokens *auth.TokenManager, admin, manager Credentials) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		admin:    normalizeCredentials(admin),
		manager:  normalizeCredentials(manager),
		hashCost: bcrypt.DefaultCost,
		logger:   util.Named("auth"),
	}
}

// SignupRequest registers a shopper
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Session is a signed-in user
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Signup creates a shopper account and signs it in
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*Session, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	if s.reserved(email) {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: name, Email: email, Password: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fromStore(err, "user")
	}

	s.logger.Info("User signed up", zap.String("user_id", user.ID.Hex()))
	return s.session(user)
}

// Login checks a password and signs the user in
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	user, err := s.checkPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// AdminLogin signs in a staff member. A bootstrap account that does not
// exist yet is created on its first successful login.
func (s *AuthService) AdminLogin(ctx context.Context, req *LoginRequest) (*Session, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user, err = s.bootstrap(ctx, email, req.Password)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fromStore(err, "user")
	default:
		if !s.passwordMatches(user, req.Password) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
	}

	if !user.IsStaff() {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return s.session(user)
}

func (s *AuthService) bootstrap(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{Email: email}
	switch {
	case matches(s.admin, email, password):
		user.Name = "Admin"
		user.IsAdmin = true
	case matches(s.manager, email, password):
		user.Name = "Manager"
		user.IsManager = true
	default:
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	user.Password = hash
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// A concurrent first login created it
			return s.checkPassword(ctx, email, password)
		}
		return nil, fromStore(err, "user")
	}

	s.logger.Info("Bootstrap staff account created",
		zap.String("email", email),
		zap.Bool("admin", user.IsAdmin))
	return user, nil
}

// Me returns the account behind a session
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, oid)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return user, nil
}

// SignInByEmail returns a session for a verified email, creating a
// passwordless shopper account on first use
func (s *AuthService) SignInByEmail(ctx context.Context, email, name string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		if s.reserved(email) {
			return nil, fmt.Errorf("%w: staff accounts sign in through admin login", ErrConflict)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &models.User{Name: name, Email: email}
		err = s.users.CreateUser(ctx, user)
		if errors.Is(err, store.ErrDuplicate) {
			user, err = s.users.GetUserByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return s.session(user)
}

// Exists reports whether an account is registered for email
func (s *AuthService) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fromStore(err, "user")
	}
	return true, nil
}

// ResetPassword replaces the password of the account behind email
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password must be at least %d characters", MinPasswordLength)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fromStore(err, "user")
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fromStore(err, "user")
	}
	s.logger.Info("Password reset", zap.String("user_id", user.ID.Hex()))
	return nil
}

func (s *AuthService) checkPassword(ctx context.Context, rawEmail, password string) (*models.User, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, fromStore(err, "user")
	}
	if !s.passwordMatches(user, password) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return user, nil
}

func (s *AuthService) passwordMatches(user *models.User, password string) bool {
	if user.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// NormalizeEmail trims, lower-cases and checks an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("invalid email address")
	}
	return email, nil
}

// reserved reports whether email belongs to a bootstrap staff account.
// Shoppers cannot claim it before the first admin login creates it.
func (s *AuthService) reserved(email string) bool {
	return (s.admin.Email != "" && email == s.admin.Email) ||
		(s.manager.Email != "" && email == s.manager.Email)
}

func normalizeCredentials(c Credentials) Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

func matches(c Credentials, email, password string) bool {
	if c.Email == "" || c.Password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(c.Email), []byte(email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	return emailOK && passwordOK
}
