package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dailydiet/internal/model"
	"dailydiet/internal/pkg/jwtutil"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("operation not permitted")
	ErrUserNotFound      = errors.New("user not found")
)

type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
	UpdatePasswordHash(id uint, passwordHash string) error
	DeleteCascade(id uint) error
}

type SessionStore interface {
	Create(ctx context.Context, userID uint) (string, error)
	Get(ctx context.Context, sessionID string) (uint, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type AuditPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

type AuthService struct {
	users         UserStore
	sessions      SessionStore
	events        AuditPublisher
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	User      *model.User
	Token     string
	SessionID string
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	events AuditPublisher,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		sessions:      sessions,
		events:        events,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	password := input.Password

	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	s.audit(user.ID, "register", "user", user.ID)
	return user, nil
}

// Login verifies the credentials, issues a bearer token and creates a
// server-side session. Unknown username and wrong password produce the same
// error so the response leaks nothing about which field was wrong.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	password := input.Password
	if username == "" || password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.audit(user.ID, "login", "user", user.ID)
	return &LoginResult{User: user, Token: token, SessionID: sessionID}, nil
}

func (s *AuthService) Logout(ctx context.Context, caller Caller, sessionID string) error {
	if caller.ID == 0 {
		return ErrUnauthenticated
	}
	if sessionID != "" {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return err
		}
	}
	s.audit(caller.ID, "logout", "user", caller.ID)
	return nil
}

// ResolveToken turns a bearer token into a caller identity.
func (s *AuthService) ResolveToken(token string) (Caller, error) {
	claims, err := jwtutil.ParseToken(s.jwtSecret, token)
	if err != nil {
		return Caller{}, ErrUnauthenticated
	}
	return Caller{ID: claims.UserID, Role: claims.Role}, nil
}

// ResolveSession turns a session cookie into a caller identity. The user row
// is loaded so the role reflects the current record, not the login moment.
func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (Caller, error) {
	if sessionID == "" {
		return Caller{}, ErrUnauthenticated
	}

	userID, found, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Caller{}, err
	}
	if !found {
		return Caller{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return Caller{}, err
	}
	if user == nil {
		return Caller{}, ErrUnauthenticated
	}
	return Caller{ID: user.ID, Role: user.Role}, nil
}

// GetUser requires only an authenticated caller; any user may look up any
// other user's name.
func (s *AuthService) GetUser(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdatePassword lets a user change their own password and an admin change
// anyone's. A blank new password reports not-found, matching the historical
// endpoint contract.
func (s *AuthService) UpdatePassword(caller Caller, id uint, newPassword string) error {
	if id != caller.ID && !caller.IsAdmin() {
		return ErrForbidden
	}

	user, err := s.users.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil || newPassword == "" {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}
	if err := s.users.UpdatePasswordHash(id, string(hash)); err != nil {
		return err
	}

	s.audit(caller.ID, "update_password", "user", id)
	return nil
}

// DeleteUser is admin-only, and even an admin may not delete the identity
// currently authenticated. The user's diet entries go with the record.
func (s *AuthService) DeleteUser(caller Caller, id uint) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if id == caller.ID {
		return ErrForbidden
	}

	user, err := s.users.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.DeleteCascade(id); err != nil {
		return err
	}

	s.audit(caller.ID, "delete", "user", id)
	return nil
}

func (s *AuthService) audit(userID uint, action, entity string, entityID uint) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(context.Background(), model.AuditEvent{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: time.Now(),
	})
}
