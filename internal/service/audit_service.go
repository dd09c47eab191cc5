package service

import (
	"context"
	"encoding/json"
	"time"

	"workflow/internal/model"
	"workflow/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AuditEntry describes one audited action.
type AuditEntry struct {
	Action     string
	EntityType string
	EntityID   string
	Message    string
	Actor      Actor
	Meta       map[string]interface{}
}

type AuditLogResponse struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Message    string          `json:"message"`
	UserID     string          `json:"user_id,omitempty"`
	UserEmail  string          `json:"user_email,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type AuditService interface {
	// Log records entry. Failures are logged and never returned.
	Log(ctx context.Context, entry AuditEntry)
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	row := &model.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		Message:    entry.Message,
		UserID:     entry.Actor.userID(),
		UserEmail:  entry.Actor.email(),
	}
	if entry.EntityID != "" {
		id := entry.EntityID
		row.EntityID = &id
	}
	if len(entry.Meta) > 0 {
		raw, err := json.Marshal(entry.Meta)
		if err != nil {
			s.log.Warn("audit meta not serialisable", zap.String("action", entry.Action), zap.Error(err))
		} else {
			row.Meta = datatypes.JSON(raw)
		}
	}

	// The triggering action already succeeded; a cancelled request must not drop its record.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.Log(ctx, row); err != nil {
		s.log.Error("audit log write failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

// GetAuditLogs returns audit records newest first.
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		item := AuditLogResponse{
			ID:         l.ID.String(),
			Action:     l.Action,
			EntityType: l.EntityType,
			Message:    l.Message,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		}
		if l.EntityID != nil {
			item.EntityID = *l.EntityID
		}
		if l.UserID != nil {
			item.UserID = l.UserID.String()
		}
		if l.UserEmail != nil {
			item.UserEmail = *l.UserEmail
		}
		if len(l.Meta) > 0 {
			item.Meta = json.RawMessage(l.Meta)
		}
		res = append(res, item)
	}
	return res, total, nil
}
