package service

import (
	"math"

	"workflow/internal/model"

	"github.com/shopspring/decimal"
)

// CalcRule derives a suggested quantity from field lengths in feet.
type CalcRule struct {
	Basis    string
	Factor   decimal.Decimal
	Rounding string
}

// RuleFor extracts m's calc rule. ok is false when the material has none.
func RuleFor(m *model.Material) (CalcRule, bool) {
	if m.CalcBasis == nil || *m.CalcBasis == "" || !m.CalcFactor.Valid {
		return CalcRule{}, false
	}
	return CalcRule{Basis: *m.CalcBasis, Factor: m.CalcFactor.Decimal, Rounding: m.CalcRounding}, true
}

// ComputeSuggestedQty applies rule to the entered lengths. ok is false when the
// rule has no basis or a zero factor; the result is never negative.
func ComputeSuggestedQty(rule CalcRule, fiberFt, strandFt float64) (int64, bool) {
	if rule.Basis == "" || rule.Factor.IsZero() {
		return 0, false
	}

	fiber := feet(fiberFt)
	strand := feet(strandFt)

	var base decimal.Decimal
	switch rule.Basis {
	case model.CalcBasisFiber:
		base = fiber
	case model.CalcBasisStrand:
		base = strand
	case model.CalcBasisTotal:
		base = fiber.Add(strand)
	default:
		return 0, false
	}

	raw := base.Mul(rule.Factor)
	switch rule.Rounding {
	case model.RoundingCeil:
		raw = raw.Ceil()
	case model.RoundingFloor:
		raw = raw.Floor()
	case model.RoundingRound:
		raw = raw.Round(0)
	}

	qty := raw.Truncate(0).IntPart()
	if qty < 0 {
		qty = 0
	}
	return qty, true
}

// feet converts a form value, treating NaN and infinities as zero.
func feet(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
