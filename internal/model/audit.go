package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateMaterial  = "CREATE_MATERIAL"
	ActionUpdateMaterial  = "UPDATE_MATERIAL"
	ActionDeleteMaterial  = "DELETE_MATERIAL"
	ActionImportMaterials = "IMPORT_MATERIALS"
	ActionCreateRequest   = "CREATE_REQUEST"
	ActionDeleteRequest   = "DELETE_REQUEST"
	ActionExportExcel     = "EXPORT_EXCEL"
	ActionCreateUser      = "CREATE_USER"
	ActionDeleteUser      = "DELETE_USER"
)

const (
	EntityMaterial = "MATERIAL"
	EntityRequest  = "REQUEST"
	EntityUser     = "USER"
)

// AuditLog records who did what to which entity. Rows outlive the users and
// entities they mention, so UserID and EntityID carry no foreign keys.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID   *string        `gorm:"type:varchar(64);index" json:"entity_id"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	UserEmail  *string        `gorm:"type:varchar(255)" json:"user_email"`
	Meta       datatypes.JSON `json:"meta,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
