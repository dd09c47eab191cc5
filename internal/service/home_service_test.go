package service

import (
	"context"
	"testing"

	"workflow/internal/repository"
	"workflow/internal/testutil"
)

func TestHomeMenuByRole(t *testing.T) {
	f := newFixture(t)
	home := NewHomeService(repository.NewRequestRepository(f.db), repository.NewMaterialRepository(f.db))

	tests := []struct {
		name  string
		actor Actor
		want  int
	}{
		{"admin sees users and audit", f.admin, 4},
		{"operator", f.operator, 2},
		{"viewer", f.viewer, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := home.Home(context.Background(), tt.actor, "")
			if err != nil {
				t.Fatalf("Home() error = %v", err)
			}
			if len(res.Menu) != tt.want {
				t.Errorf("menu items = %d, want %d", len(res.Menu), tt.want)
			}
			if res.Results != nil {
				t.Error("results without a query")
			}
			if res.User.Role != tt.actor.Role {
				t.Errorf("user role = %q", res.User.Role)
			}
		})
	}
}

func TestHomeSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	home := NewHomeService(repository.NewRequestRepository(f.db), repository.NewMaterialRepository(f.db))

	splice := testutil.SeedMaterial(t, f.db, "7100", "Splice closure")
	testutil.SeedMaterial(t, f.db, "7200", "Pole bracket")

	if _, err := f.requests.CreateRequest(ctx, f.operator, CreateRequestInput{
		ProjectSite: "Riverside Splice Yard",
		RequestedBy: "Rita",
		Items:       []RequestItemInput{{MaterialID: splice.ID.String(), Selected: true, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	res, err := home.Home(ctx, f.viewer, "  SPLICE ")
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if res.Query != "SPLICE" || res.Results == nil {
		t.Fatalf("query = %q, results = %v", res.Query, res.Results)
	}
	if len(res.Results.Requests) != 1 || res.Results.Requests[0].RequestCode != "WF-000001" {
		t.Errorf("request matches = %+v", res.Results.Requests)
	}
	if len(res.Results.Materials) != 1 || res.Results.Materials[0].SapPN != "7100" {
		t.Errorf("material matches = %+v", res.Results.Materials)
	}

	byCode, err := home.Home(ctx, f.viewer, "wf-0000")
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if len(byCode.Results.Requests) != 1 || len(byCode.Results.Materials) != 0 {
		t.Errorf("code search = %d requests, %d materials", len(byCode.Results.Requests), len(byCode.Results.Materials))
	}
}
