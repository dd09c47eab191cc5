package repository

import (
	"context"

	"workflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines data access for User accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user ordered by role, then name.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).Order("role asc").Order("name asc").Find(&users).Error
	return users, err
}

func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}
