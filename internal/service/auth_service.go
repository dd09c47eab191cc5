package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workflow/internal/model"
	"workflow/internal/repository"
	"workflow/internal/session"

	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUser is the public view of an authenticated user.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	User      SessionUser `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// AdminConfirmer re-checks an admin's own password before destructive actions.
type AdminConfirmer interface {
	ConfirmAdmin(ctx context.Context, actor Actor, password string) error
}

type AuthService interface {
	AdminConfirmer
	VerifyCredentials(ctx context.Context, email, password string) (*SessionUser, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type authService struct {
	users    repository.UserRepository
	sessions *session.Manager
}

func NewAuthService(users repository.UserRepository, sessions *session.Manager) AuthService {
	return &authService{users: users, sessions: sessions}
}

// VerifyCredentials never reveals whether the email or the password was wrong.
func (s *authService) VerifyCredentials(ctx context.Context, email, password string) (*SessionUser, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return toSessionUser(user), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.sessions.Issue(session.Identity{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResponse{User: *user, Token: token, ExpiresAt: expiresAt}, nil
}

// ConfirmAdmin checks that actor is still an ADMIN and that password matches their own hash.
func (s *authService) ConfirmAdmin(ctx context.Context, actor Actor, password string) error {
	if actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	if password == "" {
		return ErrInvalidAdminPassword
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrForbidden
		}
		return fmt.Errorf("load admin: %w", err)
	}
	if user.Role != model.RoleAdmin {
		return ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidAdminPassword
		}
		return fmt.Errorf("compare admin password: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toSessionUser(u *model.User) *SessionUser {
	return &SessionUser{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}
