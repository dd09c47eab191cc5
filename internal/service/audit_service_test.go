package service

import (
	"context"
	"encoding/json"
	"testing"

	"workflow/internal/model"
	"workflow/internal/repository"
	"workflow/internal/testutil"
)

func TestAuditFailureDoesNotFailAction(t *testing.T) {
	f := newFixtureWithAudit(t, failingAuditRepo{})
	ctx := context.Background()

	created, err := f.materials.CreateMaterial(ctx, f.operator, MaterialInput{SapPN: "900", Name: "Pole tag"})
	if err != nil {
		t.Fatalf("CreateMaterial() error = %v, want success despite audit failure", err)
	}

	var count int64
	f.db.Model(&model.Material{}).Where("id = ?", created.ID).Count(&count)
	if count != 1 {
		t.Errorf("material rows = %d, want 1", count)
	}
}

func TestAuditLogAfterCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.audit.Log(ctx, AuditEntry{
		Action:     model.ActionExportExcel,
		EntityType: model.EntityRequest,
		Message:    "Request WF-000001 exported to Excel",
		Actor:      f.viewer,
	})

	if actions := f.auditActions(t); len(actions) != 1 {
		t.Errorf("audit actions = %v, want the record written", actions)
	}
}

func TestGetAuditLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.SeedMaterial(t, f.db, "910", "Guy hook")

	if _, err := f.requests.CreateRequest(ctx, f.operator, CreateRequestInput{
		ProjectSite: "Hilltop",
		RequestedBy: "Oscar",
		Items:       []RequestItemInput{{MaterialID: m.ID.String(), Selected: true, Quantity: 3}},
	}); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if _, err := f.materials.CreateMaterial(ctx, f.admin, MaterialInput{SapPN: "911", Name: "Down guy"}); err != nil {
		t.Fatalf("CreateMaterial() error = %v", err)
	}

	all, total, err := f.audit.GetAuditLogs(ctx, repository.AuditFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("GetAuditLogs() error = %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("logs = %d of %d, want 2", len(all), total)
	}
	if all[0].Action != model.ActionCreateMaterial {
		t.Errorf("newest action = %s, want %s", all[0].Action, model.ActionCreateMaterial)
	}

	reqLogs, _, err := f.audit.GetAuditLogs(ctx, repository.AuditFilter{EntityType: model.EntityRequest}, 1, 50)
	if err != nil {
		t.Fatalf("GetAuditLogs(entity) error = %v", err)
	}
	if len(reqLogs) != 1 {
		t.Fatalf("request logs = %d, want 1", len(reqLogs))
	}
	entry := reqLogs[0]
	if entry.UserEmail != "operator@workflow.local" || entry.UserID != f.operator.ID.String() {
		t.Errorf("actor = %s/%s, want the operator", entry.UserID, entry.UserEmail)
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(entry.Meta, &meta); err != nil {
		t.Fatalf("meta is not JSON: %v", err)
	}
	if meta["items"] != float64(1) {
		t.Errorf("meta items = %v, want 1", meta["items"])
	}
}
