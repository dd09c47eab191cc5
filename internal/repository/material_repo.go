package repository

import (
	"context"
	"strings"

	"workflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaterialRepository interface {
	Create(ctx context.Context, m *model.Material) error
	Update(ctx context.Context, m *model.Material) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error)
	FindBySapPN(ctx context.Context, sapPN string) (*model.Material, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Material, int64, error)
	ListActive(ctx context.Context) ([]model.Material, error)
	CountUsage(ctx context.Context, id uuid.UUID) (int64, error)
}

type materialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(ctx context.Context, m *model.Material) error {
	return GetDB(ctx, r.db).Create(m).Error
}

// Update writes every column, so IsActive=false and cleared calc rules persist.
func (r *materialRepository) Update(ctx context.Context, m *model.Material) error {
	return GetDB(ctx, r.db).Save(m).Error
}

func (r *materialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Material{}).Error
}

func (r *materialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	if err := GetDB(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRepository) FindBySapPN(ctx context.Context, sapPN string) (*model.Material, error) {
	var m model.Material
	if err := GetDB(ctx, r.db).First(&m, "sap_pn = ?", sapPN).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// List orders active materials first, then by name. search matches name or SAP PN.
func (r *materialRepository) List(ctx context.Context, search string, page, limit int) ([]model.Material, int64, error) {
	var materials []model.Material
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Material{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sap_pn) LIKE ?", like, like)
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("is_active desc").Order("name asc").
		Offset(offset).Limit(limit).Find(&materials).Error
	if err != nil {
		return nil, 0, err
	}
	return materials, total, nil
}

func (r *materialRepository) ListActive(ctx context.Context) ([]model.Material, error) {
	var materials []model.Material
	err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("name asc").Find(&materials).Error
	return materials, err
}

// CountUsage counts request items that reference the material.
func (r *materialRepository) CountUsage(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.MaterialRequestItem{}).Where("material_id = ?", id).Count(&n).Error
	return n, err
}
