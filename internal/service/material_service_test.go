package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"workflow/internal/model"
	"workflow/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestCreateMaterialValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	zero := decimal.Zero
	factor := decimal.RequireFromString("0.01")

	tests := []struct {
		name    string
		input   MaterialInput
		wantMsg string
	}{
		{"missing sap", MaterialInput{Name: "Strand clamp"}, "SAP PN and Name are required."},
		{"blank name", MaterialInput{SapPN: "100", Name: "   "}, "SAP PN and Name are required."},
		{"unknown basis", MaterialInput{SapPN: "100", Name: "Clamp", CalcBasis: "METERS", CalcFactor: &factor}, "Invalid calc basis."},
		{"unknown rounding", MaterialInput{SapPN: "100", Name: "Clamp", CalcRounding: "UP"}, "Invalid rounding mode."},
		{"missing factor", MaterialInput{SapPN: "100", Name: "Clamp", CalcBasis: model.CalcBasisFiber}, "Calc factor must be greater than zero."},
		{"zero factor", MaterialInput{SapPN: "100", Name: "Clamp", CalcBasis: model.CalcBasisFiber, CalcFactor: &zero}, "Calc factor must be greater than zero."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.materials.CreateMaterial(ctx, f.admin, tt.input)
			vErr := validationMessage(t, err)
			if vErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", vErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestCreateMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	factor := decimal.RequireFromString("0.07")

	created, err := f.materials.CreateMaterial(ctx, f.operator, MaterialInput{
		SapPN:        " 1252068 ",
		Name:         "Innerduct plug",
		Unit:         "EA",
		CalcBasis:    "fiber_ft",
		CalcFactor:   &factor,
		CalcRounding: "ceil",
	})
	if err != nil {
		t.Fatalf("CreateMaterial() error = %v", err)
	}
	if created.SapPN != "1252068" || !created.IsActive {
		t.Errorf("created = %+v, want trimmed sap and active", created)
	}
	if created.CalcBasis == nil || *created.CalcBasis != model.CalcBasisFiber {
		t.Errorf("calc basis = %v, want %s", created.CalcBasis, model.CalcBasisFiber)
	}
	if created.CalcFactor == nil || *created.CalcFactor != "0.07" {
		t.Errorf("calc factor = %v, want 0.07", created.CalcFactor)
	}
	if created.CalcRounding != model.RoundingCeil {
		t.Errorf("rounding = %s, want %s", created.CalcRounding, model.RoundingCeil)
	}
	if created.Description != nil {
		t.Errorf("blank description stored as %q, want NULL", *created.Description)
	}

	_, err = f.materials.CreateMaterial(ctx, f.operator, MaterialInput{SapPN: "1252068", Name: "Another"})
	vErr := validationMessage(t, err)
	if !vErr.Conflict || vErr.Message != "SAP PN already exists." {
		t.Errorf("duplicate error = %+v, want conflict", vErr)
	}

	if actions := f.auditActions(t); len(actions) != 1 || actions[0] != model.ActionCreateMaterial {
		t.Errorf("audit actions = %v, want [%s]", actions, model.ActionCreateMaterial)
	}
}

func TestUpdateMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clamp := testutil.SeedMaterial(t, f.db, "200", "Clamp")
	testutil.SeedMaterial(t, f.db, "300", "Bracket")
	inactive := false

	updated, err := f.materials.UpdateMaterial(ctx, f.operator, clamp.ID.String(), MaterialInput{
		SapPN:    "200",
		Name:     "Strand clamp",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateMaterial() error = %v", err)
	}
	if updated.Name != "Strand clamp" || updated.IsActive {
		t.Errorf("updated = %+v, want renamed and inactive", updated)
	}

	var stored model.Material
	if err := f.db.First(&stored, "id = ?", clamp.ID).Error; err != nil {
		t.Fatalf("reload material: %v", err)
	}
	if stored.IsActive {
		t.Error("material still active after deactivation")
	}

	_, err = f.materials.UpdateMaterial(ctx, f.operator, clamp.ID.String(), MaterialInput{SapPN: "300", Name: "Strand clamp"})
	if vErr := validationMessage(t, err); !vErr.Conflict {
		t.Errorf("error = %+v, want conflict on taken SAP PN", vErr)
	}

	_, err = f.materials.UpdateMaterial(ctx, f.operator, "not-a-uuid", MaterialInput{SapPN: "1", Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
}

func TestGetMaterialReportsUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	used := testutil.SeedMaterial(t, f.db, "400", "Used")
	unused := testutil.SeedMaterial(t, f.db, "401", "Unused")

	_, err := f.requests.CreateRequest(ctx, f.operator, CreateRequestInput{
		ProjectSite: "Site",
		RequestedBy: "Oscar",
		Items:       []RequestItemInput{{MaterialID: used.ID.String(), Selected: true, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	detail, err := f.materials.GetMaterial(ctx, used.ID.String())
	if err != nil {
		t.Fatalf("GetMaterial() error = %v", err)
	}
	if detail.UsageCount != 1 || detail.CanDelete {
		t.Errorf("used detail = %+v, want usage 1 and not deletable", detail)
	}

	detail, err = f.materials.GetMaterial(ctx, unused.ID.String())
	if err != nil {
		t.Fatalf("GetMaterial() error = %v", err)
	}
	if detail.UsageCount != 0 || !detail.CanDelete {
		t.Errorf("unused detail = %+v, want deletable", detail)
	}
}

func TestDeleteMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	used := testutil.SeedMaterial(t, f.db, "500", "Used")
	unused := testutil.SeedMaterial(t, f.db, "501", "Unused")

	if _, err := f.requests.CreateRequest(ctx, f.operator, CreateRequestInput{
		ProjectSite: "Site",
		RequestedBy: "Oscar",
		Items:       []RequestItemInput{{MaterialID: used.ID.String(), Selected: true, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	t.Run("operator is forbidden", func(t *testing.T) {
		err := f.materials.DeleteMaterial(ctx, f.operator, unused.ID.String(), "operator-pass")
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("wrong admin password", func(t *testing.T) {
		err := f.materials.DeleteMaterial(ctx, f.admin, unused.ID.String(), "nope")
		if !errors.Is(err, ErrInvalidAdminPassword) {
			t.Errorf("error = %v, want ErrInvalidAdminPassword", err)
		}
	})

	t.Run("referenced material is kept", func(t *testing.T) {
		err := f.materials.DeleteMaterial(ctx, f.admin, used.ID.String(), adminPassword)
		vErr := validationMessage(t, err)
		if vErr.Message != "This material is used in existing requests and cannot be permanently deleted." {
			t.Errorf("message = %q", vErr.Message)
		}
		var count int64
		f.db.Model(&model.Material{}).Where("id = ?", used.ID).Count(&count)
		if count != 1 {
			t.Errorf("referenced material rows = %d, want 1", count)
		}
	})

	t.Run("unreferenced material is removed", func(t *testing.T) {
		if err := f.materials.DeleteMaterial(ctx, f.admin, unused.ID.String(), adminPassword); err != nil {
			t.Fatalf("DeleteMaterial() error = %v", err)
		}
		var count int64
		f.db.Model(&model.Material{}).Where("id = ?", unused.ID).Count(&count)
		if count != 0 {
			t.Errorf("deleted material rows = %d, want 0", count)
		}
		if !contains(f.auditActions(t), model.ActionDeleteMaterial) {
			t.Error("delete was not audited")
		}
	})
}

func TestImportMaterials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := testutil.SeedMaterial(t, f.db, "1252068", "Old name")
	if err := f.db.Model(existing).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{"Description", "sap pn"},
		{"1.25in innerduct plug", "1252068"},
		{"2.5in innerduct plug", "1252069"},
		{"", "1252070"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	res, err := f.materials.ImportMaterials(ctx, f.operator, &buf)
	if err != nil {
		t.Fatalf("ImportMaterials() error = %v", err)
	}
	if res.Created != 1 || res.Updated != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 created, 1 updated, 1 skipped", res)
	}

	var stored model.Material
	if err := f.db.First(&stored, "sap_pn = ?", "1252068").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Name != "1.25in innerduct plug" || !stored.IsActive {
		t.Errorf("updated material = %+v, want renamed and reactivated", stored)
	}

	_, err = f.materials.ImportMaterials(ctx, f.operator, bytes.NewReader([]byte("not a workbook")))
	if vErr := validationMessage(t, err); vErr.Message != "The file is not a readable .xlsx workbook." {
		t.Errorf("message = %q", vErr.Message)
	}
}
