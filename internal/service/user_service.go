package service

import (
	"context"
	"fmt"
	"strings"

	"workflow/internal/model"
	"workflow/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserResponse never exposes the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
}

type UserService interface {
	ListUsers(ctx context.Context) ([]UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id, adminPassword string) error
	// EnsureAdmin creates an ADMIN with email unless a user with that email exists.
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type userService struct {
	repo     repository.UserRepository
	tx       repository.TransactionManager
	confirm  AdminConfirmer
	audit    AuditService
	hashCost int
}

func NewUserService(repo repository.UserRepository, tx repository.TransactionManager, confirm AdminConfirmer, audit AuditService) UserService {
	return &userService{repo: repo, tx: tx, confirm: confirm, audit: audit, hashCost: bcrypt.DefaultCost}
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListUsers returns all users ordered by role, then name.
func (s *userService) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	role := strings.ToUpper(strings.TrimSpace(req.Role))

	if name == "" || email == "" || strings.TrimSpace(req.Password) == "" || role == "" {
		return nil, invalid("All fields are required.")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("Enter a valid email address.")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	if !model.ValidRole(role) {
		return nil, invalid(fmt.Sprintf("Invalid role %q. Allowed: %s", role, strings.Join(model.Roles(), ", ")))
	}

	user, err := s.create(ctx, name, email, req.Password, role)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionCreateUser,
		EntityType: model.EntityUser,
		EntityID:   user.ID.String(),
		Message:    fmt.Sprintf("User created: %s (%s)", user.Email, user.Role),
		Actor:      actor,
	})
	return mapToResponse(user), nil
}

func (s *userService) create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, conflict("Email already exists.")
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: string(hashed), Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, conflict("Email already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// DeleteUser refuses to delete the acting admin or the last remaining ADMIN.
func (s *userService) DeleteUser(ctx context.Context, actor Actor, id, adminPassword string) error {
	if err := s.confirm.ConfirmAdmin(ctx, actor, adminPassword); err != nil {
		return err
	}

	var deleted *model.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		if user.ID == actor.ID {
			return invalid("You cannot delete your own account.")
		}
		if user.Role == model.RoleAdmin {
			admins, err := s.repo.CountByRole(txCtx, model.RoleAdmin)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return invalid("You cannot delete the last ADMIN user.")
			}
		}
		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		deleted = user
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionDeleteUser,
		EntityType: model.EntityUser,
		EntityID:   deleted.ID.String(),
		Message:    fmt.Sprintf("User deleted: %s (%s)", deleted.Email, deleted.Role),
		Actor:      actor,
	})
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, invalid("Admin email and password are required.")
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !repository.IsNotFound(err) {
		return false, fmt.Errorf("check admin: %w", err)
	}

	if _, err := s.create(ctx, name, email, password, model.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("User")
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("User")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
