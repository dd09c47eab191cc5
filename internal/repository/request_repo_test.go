package repository

import (
	"context"
	"testing"
	"time"

	"workflow/internal/model"
	"workflow/internal/testutil"
)

func TestLastCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	last, err := repo.LastCode(ctx)
	if err != nil || last != "" {
		t.Fatalf("LastCode() on empty table = %q, %v", last, err)
	}

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, code := range []string{"WF-999998", "WF-1000000", "WF-999999"} {
		req := &model.MaterialRequest{
			RequestCode: code,
			Date:        created,
			ProjectSite: "Site",
			RequestedBy: "Crew",
			CreatedAt:   created,
		}
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("Create(%s) error = %v", code, err)
		}
	}

	last, err = repo.LastCode(ctx)
	if err != nil {
		t.Fatalf("LastCode() error = %v", err)
	}
	if last != "WF-1000000" {
		t.Errorf("LastCode() = %q, want WF-1000000", last)
	}

	newer := &model.MaterialRequest{
		RequestCode: "WF-000005",
		Date:        created,
		ProjectSite: "Site",
		RequestedBy: "Crew",
		CreatedAt:   created.Add(time.Minute),
	}
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if last, _ = repo.LastCode(ctx); last != "WF-000005" {
		t.Errorf("LastCode() = %q, want the most recently created WF-000005", last)
	}
}
