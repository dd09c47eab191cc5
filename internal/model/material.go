package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Calc basis values: which field length drives the suggested quantity.
const (
	CalcBasisFiber  = "FIBER_FT"
	CalcBasisStrand = "STRAND_FT"
	CalcBasisTotal  = "TOTAL_FT"
)

const (
	RoundingCeil  = "CEIL"
	RoundingRound = "ROUND"
	RoundingFloor = "FLOOR"
	RoundingNone  = "NONE"
)

func CalcBases() []string {
	return []string{CalcBasisFiber, CalcBasisStrand, CalcBasisTotal}
}

func RoundingModes() []string {
	return []string{RoundingCeil, RoundingRound, RoundingFloor, RoundingNone}
}

func ValidCalcBasis(basis string) bool {
	switch basis {
	case CalcBasisFiber, CalcBasisStrand, CalcBasisTotal:
		return true
	}
	return false
}

func ValidRounding(mode string) bool {
	switch mode {
	case RoundingCeil, RoundingRound, RoundingFloor, RoundingNone:
		return true
	}
	return false
}

// Material is a catalog entry identified by its SAP part number.
type Material struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	SapPN        string              `gorm:"column:sap_pn;type:varchar(100);uniqueIndex;not null" json:"sap_pn"`
	Name         string              `gorm:"type:varchar(255);not null;index" json:"name"`
	Description  *string             `gorm:"type:text" json:"description"`
	Unit         *string             `gorm:"type:varchar(30)" json:"unit"`
	IsActive     bool                `gorm:"not null;index" json:"is_active"`
	CalcBasis    *string             `gorm:"type:varchar(20)" json:"calc_basis"`
	CalcFactor   decimal.NullDecimal `gorm:"type:decimal(14,6)" json:"calc_factor"`
	CalcRounding string              `gorm:"type:varchar(10);not null" json:"calc_rounding"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CalcRounding == "" {
		m.CalcRounding = RoundingNone
	}
	return nil
}
