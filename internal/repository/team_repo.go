package repository

import (
	"context"

	"workflow/internal/model"

	"gorm.io/gorm"
)

type TeamRepository interface {
	FindByName(ctx context.Context, name string) (*model.Team, error)
	Create(ctx context.Context, team *model.Team) error
	List(ctx context.Context) ([]model.Team, error)
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

// FindByName returns the oldest team with exactly this name.
func (r *teamRepository) FindByName(ctx context.Context, name string) (*model.Team, error) {
	var team model.Team
	if err := GetDB(ctx, r.db).Where("name = ?", name).Order("created_at asc").First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) Create(ctx context.Context, team *model.Team) error {
	return GetDB(ctx, r.db).Create(team).Error
}

func (r *teamRepository) List(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	err := GetDB(ctx, r.db).Order("name asc").Find(&teams).Error
	return teams, err
}
