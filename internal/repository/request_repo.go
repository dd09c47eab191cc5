package repository

import (
	"context"
	"strings"

	"workflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.MaterialRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error)
	List(ctx context.Context, page, limit int) ([]model.MaterialRequest, int64, error)
	ItemCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	Search(ctx context.Context, q string, limit int) ([]model.MaterialRequest, error)
	LastCode(ctx context.Context) (string, error)
	MarkItemsComplete(ctx context.Context, requestID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create inserts the request row and then its items. Associations are never upserted.
func (r *requestRepository) Create(ctx context.Context, req *model.MaterialRequest) error {
	db := GetDB(ctx, r.db)
	items := req.Items
	if err := db.Omit(clause.Associations).Create(req).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].RequestID = req.ID
	}
	if err := db.Omit(clause.Associations).Create(&items).Error; err != nil {
		return err
	}
	req.Items = items
	return nil
}

// FindByID loads the request with its team and items (by item number) and their materials.
func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error) {
	var req model.MaterialRequest
	err := GetDB(ctx, r.db).
		Preload("Team").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_number asc")
		}).
		Preload("Items.Material").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests newest first with their team.
func (r *requestRepository) List(ctx context.Context, page, limit int) ([]model.MaterialRequest, int64, error) {
	var reqs []model.MaterialRequest
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.MaterialRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("Team").
		Order("created_at desc").Order("request_code desc").
		Offset(offset).Limit(limit).Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *requestRepository) ItemCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		RequestID uuid.UUID
		Total     int64
	}
	err := GetDB(ctx, r.db).Model(&model.MaterialRequestItem{}).
		Select("request_id, COUNT(*) AS total").
		Where("request_id IN ?", ids).
		Group("request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.RequestID] = row.Total
	}
	return counts, nil
}

// Search matches request codes and project sites, newest first.
func (r *requestRepository) Search(ctx context.Context, q string, limit int) ([]model.MaterialRequest, error) {
	var reqs []model.MaterialRequest
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	err := GetDB(ctx, r.db).Preload("Team").
		Where("LOWER(request_code) LIKE ? OR LOWER(project_site) LIKE ?", like, like).
		Order("created_at desc").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

// LastCode returns the code of the most recently created request, or "" when there is none.
// Ties on created_at go to the highest number: longer codes first, then by text.
func (r *requestRepository) LastCode(ctx context.Context) (string, error) {
	var codes []string
	err := GetDB(ctx, r.db).Model(&model.MaterialRequest{}).
		Order("created_at desc").Order("LENGTH(request_code) desc").Order("request_code desc").
		Limit(1).
		Pluck("request_code", &codes).Error
	if err != nil || len(codes) == 0 {
		return "", err
	}
	return codes[0], nil
}

func (r *requestRepository) MarkItemsComplete(ctx context.Context, requestID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.MaterialRequestItem{}).
		Where("request_id = ?", requestID).
		Update("status", model.ItemStatusComplete)
	return res.RowsAffected, res.Error
}

// Delete removes the request and its items. Callers run it inside a transaction.
func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("request_id = ?", id).Delete(&model.MaterialRequestItem{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&model.MaterialRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
