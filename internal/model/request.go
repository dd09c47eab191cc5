package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ItemStatusPending  = "PENDING"
	ItemStatusComplete = "COMPLETE"
)

// RequestCodePrefix precedes the zero-padded sequence number, e.g. WF-000123.
const RequestCodePrefix = "WF-"

// Team is a crew name attached to requests. Names are matched exactly and are not unique.
type Team struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// MaterialRequest is a requisition of materials for a project site.
type MaterialRequest struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	RequestCode string                `gorm:"type:varchar(20);uniqueIndex;not null" json:"request_code"`
	Date        time.Time             `gorm:"not null" json:"date"`
	ProjectSite string                `gorm:"type:varchar(255);not null" json:"project_site"`
	RequestedBy string                `gorm:"type:varchar(255);not null" json:"requested_by"`
	TeamID      *uuid.UUID            `gorm:"type:uuid;index" json:"team_id"`
	Team        *Team                 `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL" json:"team,omitempty"`
	UserID      *uuid.UUID            `gorm:"type:uuid;index" json:"user_id"`
	User        *User                 `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	Items       []MaterialRequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt   time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (r *MaterialRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// MaterialRequestItem is one numbered line of a request.
type MaterialRequestItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index" json:"material_id"`
	Material   Material  `gorm:"foreignKey:MaterialID;constraint:OnDelete:RESTRICT" json:"material"`
	ItemNumber int       `gorm:"not null" json:"item_number"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Notes      *string   `gorm:"type:text" json:"notes"`
	Status     string    `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (i *MaterialRequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = ItemStatusPending
	}
	return nil
}
