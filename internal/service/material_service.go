package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"workflow/internal/model"
	"workflow/internal/repository"
	"workflow/internal/spreadsheet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialInput is the create/update payload. Fields are trimmed before validation.
type MaterialInput struct {
	SapPN        string           `json:"sap_pn"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Unit         string           `json:"unit"`
	IsActive     *bool            `json:"is_active"`
	CalcBasis    string           `json:"calc_basis"`
	CalcFactor   *decimal.Decimal `json:"calc_factor" swaggertype:"number"`
	CalcRounding string           `json:"calc_rounding"`
}

type MaterialResponse struct {
	ID           string  `json:"id"`
	SapPN        string  `json:"sap_pn"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Unit         *string `json:"unit"`
	IsActive     bool    `json:"is_active"`
	CalcBasis    *string `json:"calc_basis"`
	CalcFactor   *string `json:"calc_factor"`
	CalcRounding string  `json:"calc_rounding"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// MaterialDetailResponse is the edit view: the material plus whether it may be hard-deleted.
type MaterialDetailResponse struct {
	MaterialResponse
	UsageCount int64 `json:"usage_count"`
	CanDelete  bool  `json:"can_delete"`
}

// MaterialFormOptions lists the allowed calc rule values.
type MaterialFormOptions struct {
	CalcBases     []string `json:"calc_bases"`
	RoundingModes []string `json:"rounding_modes"`
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type MaterialService interface {
	ListMaterials(ctx context.Context, search string, page, limit int) ([]MaterialResponse, int64, error)
	FormOptions() MaterialFormOptions
	GetMaterial(ctx context.Context, id string) (*MaterialDetailResponse, error)
	CreateMaterial(ctx context.Context, actor Actor, in MaterialInput) (*MaterialResponse, error)
	UpdateMaterial(ctx context.Context, actor Actor, id string, in MaterialInput) (*MaterialResponse, error)
	DeleteMaterial(ctx context.Context, actor Actor, id, adminPassword string) error
	ImportMaterials(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error)
}

type materialService struct {
	repo    repository.MaterialRepository
	tx      repository.TransactionManager
	confirm AdminConfirmer
	audit   AuditService
}

func NewMaterialService(repo repository.MaterialRepository, tx repository.TransactionManager, confirm AdminConfirmer, audit AuditService) MaterialService {
	return &materialService{repo: repo, tx: tx, confirm: confirm, audit: audit}
}

func (s *materialService) ListMaterials(ctx context.Context, search string, page, limit int) ([]MaterialResponse, int64, error) {
	materials, total, err := s.repo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MaterialResponse, 0, len(materials))
	for i := range materials {
		res = append(res, *toMaterialResponse(&materials[i]))
	}
	return res, total, nil
}

func (s *materialService) FormOptions() MaterialFormOptions {
	return MaterialFormOptions{CalcBases: model.CalcBases(), RoundingModes: model.RoundingModes()}
}

func (s *materialService) GetMaterial(ctx context.Context, id string) (*MaterialDetailResponse, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	usage, err := s.repo.CountUsage(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("count material usage: %w", err)
	}

	return &MaterialDetailResponse{
		MaterialResponse: *toMaterialResponse(m),
		UsageCount:       usage,
		CanDelete:        usage == 0,
	}, nil
}

func (s *materialService) CreateMaterial(ctx context.Context, actor Actor, in MaterialInput) (*MaterialResponse, error) {
	m := &model.Material{IsActive: true}
	if err := applyMaterialInput(m, in); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindBySapPN(ctx, m.SapPN); err == nil {
		return nil, conflict("SAP PN already exists.")
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check sap pn: %w", err)
	}

	if err := s.repo.Create(ctx, m); err != nil {
		if isDuplicateKey(err) {
			return nil, conflict("SAP PN already exists.")
		}
		return nil, fmt.Errorf("create material: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionCreateMaterial,
		EntityType: model.EntityMaterial,
		EntityID:   m.ID.String(),
		Message:    fmt.Sprintf("Material created: %s - %s", m.SapPN, m.Name),
		Actor:      actor,
	})
	return toMaterialResponse(m), nil
}

func (s *materialService) UpdateMaterial(ctx context.Context, actor Actor, id string, in MaterialInput) (*MaterialResponse, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSap := m.SapPN

	if err := applyMaterialInput(m, in); err != nil {
		return nil, err
	}

	if m.SapPN != previousSap {
		other, err := s.repo.FindBySapPN(ctx, m.SapPN)
		if err == nil && other.ID != m.ID {
			return nil, conflict("SAP PN already exists.")
		}
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("check sap pn: %w", err)
		}
	}

	if err := s.repo.Update(ctx, m); err != nil {
		if isDuplicateKey(err) {
			return nil, conflict("SAP PN already exists.")
		}
		return nil, fmt.Errorf("update material: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionUpdateMaterial,
		EntityType: model.EntityMaterial,
		EntityID:   m.ID.String(),
		Message:    fmt.Sprintf("Material updated: %s - %s", m.SapPN, m.Name),
		Actor:      actor,
		Meta:       map[string]interface{}{"is_active": m.IsActive},
	})
	return toMaterialResponse(m), nil
}

// DeleteMaterial hard-deletes a material that no request item references.
func (s *materialService) DeleteMaterial(ctx context.Context, actor Actor, id, adminPassword string) error {
	if err := s.confirm.ConfirmAdmin(ctx, actor, adminPassword); err != nil {
		return err
	}

	var deleted *model.Material
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.find(txCtx, id)
		if err != nil {
			return err
		}

		usage, err := s.repo.CountUsage(txCtx, m.ID)
		if err != nil {
			return fmt.Errorf("count material usage: %w", err)
		}
		if usage > 0 {
			return invalid("This material is used in existing requests and cannot be permanently deleted.")
		}

		if err := s.repo.Delete(txCtx, m.ID); err != nil {
			return fmt.Errorf("delete material: %w", err)
		}
		deleted = m
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionDeleteMaterial,
		EntityType: model.EntityMaterial,
		EntityID:   deleted.ID.String(),
		Message:    fmt.Sprintf("Material deleted: %s - %s", deleted.SapPN, deleted.Name),
		Actor:      actor,
		Meta:       map[string]interface{}{"sap_pn": deleted.SapPN, "name": deleted.Name},
	})
	return nil
}

// ImportMaterials upserts the rows of a parts-list workbook by SAP PN.
// New parts are created active; existing parts get the new name and are reactivated.
func (s *materialService) ImportMaterials(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error) {
	rows, skipped, err := spreadsheet.ReadPartsList(r)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrMissingColumns) {
			return nil, invalid(`The file must have "SAP PN" and "DESCRIPTION" columns.`)
		}
		if errors.Is(err, spreadsheet.ErrUnreadable) {
			return nil, invalid("The file is not a readable .xlsx workbook.")
		}
		return nil, fmt.Errorf("read parts list: %w", err)
	}

	result := &ImportResult{Skipped: skipped}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, row := range rows {
			existing, err := s.repo.FindBySapPN(txCtx, row.SapPN)
			switch {
			case err == nil:
				existing.Name = row.Name
				existing.IsActive = true
				if err := s.repo.Update(txCtx, existing); err != nil {
					return fmt.Errorf("update %s: %w", row.SapPN, err)
				}
				result.Updated++
			case repository.IsNotFound(err):
				m := &model.Material{SapPN: row.SapPN, Name: row.Name, IsActive: true, CalcRounding: model.RoundingNone}
				if err := s.repo.Create(txCtx, m); err != nil {
					return fmt.Errorf("create %s: %w", row.SapPN, err)
				}
				result.Created++
			default:
				return fmt.Errorf("look up %s: %w", row.SapPN, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionImportMaterials,
		EntityType: model.EntityMaterial,
		Message:    fmt.Sprintf("Materials imported: %d created, %d updated", result.Created, result.Updated),
		Actor:      actor,
		Meta:       map[string]interface{}{"created": result.Created, "updated": result.Updated, "skipped": result.Skipped},
	})
	return result, nil
}

func (s *materialService) find(ctx context.Context, id string) (*model.Material, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("Material")
	}
	m, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Material")
		}
		return nil, fmt.Errorf("load material: %w", err)
	}
	return m, nil
}

// applyMaterialInput validates in and copies it onto m.
func applyMaterialInput(m *model.Material, in MaterialInput) error {
	sapPN := strings.TrimSpace(in.SapPN)
	name := strings.TrimSpace(in.Name)
	if sapPN == "" || name == "" {
		return invalid("SAP PN and Name are required.")
	}

	basis := strings.ToUpper(strings.TrimSpace(in.CalcBasis))
	rounding := strings.ToUpper(strings.TrimSpace(in.CalcRounding))
	if rounding == "" {
		rounding = model.RoundingNone
	}
	if !model.ValidRounding(rounding) {
		return invalid("Invalid rounding mode.")
	}

	m.CalcBasis = nil
	m.CalcFactor = decimal.NullDecimal{}
	if basis != "" {
		if !model.ValidCalcBasis(basis) {
			return invalid("Invalid calc basis.")
		}
		if in.CalcFactor == nil || !in.CalcFactor.IsPositive() {
			return invalid("Calc factor must be greater than zero.")
		}
		m.CalcBasis = &basis
		m.CalcFactor = decimal.NewNullDecimal(*in.CalcFactor)
	}

	m.SapPN = sapPN
	m.Name = name
	m.Description = optionalString(in.Description)
	m.Unit = optionalString(in.Unit)
	m.CalcRounding = rounding
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	return nil
}

// optionalString maps blank input to NULL.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func toMaterialResponse(m *model.Material) *MaterialResponse {
	res := &MaterialResponse{
		ID:           m.ID.String(),
		SapPN:        m.SapPN,
		Name:         m.Name,
		Description:  m.Description,
		Unit:         m.Unit,
		IsActive:     m.IsActive,
		CalcBasis:    m.CalcBasis,
		CalcRounding: m.CalcRounding,
		CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    m.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if m.CalcFactor.Valid {
		f := m.CalcFactor.Decimal.String()
		res.CalcFactor = &f
	}
	return res
}
