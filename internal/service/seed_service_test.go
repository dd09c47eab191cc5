package service

import (
	"context"
	"testing"

	"workflow/internal/model"
	"workflow/internal/repository"
)

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeder := NewSeeder(f.users,
		repository.NewTeamRepository(f.db),
		repository.NewMaterialRepository(f.db),
		repository.NewTransactionManager(f.db),
	)
	opts := SeedOptions{AdminEmail: "boss@workflow.local", AdminPassword: "boss-pass"}

	first, err := seeder.Seed(ctx, opts)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if !first.AdminCreated || first.TeamsCreated != len(seedTeams) || first.MaterialsUpserted != len(seedMaterials) {
		t.Errorf("first run = %+v", first)
	}

	second, err := seeder.Seed(ctx, opts)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if second.AdminCreated || second.TeamsCreated != 0 {
		t.Errorf("second run = %+v", second)
	}

	var teams, materials int64
	f.db.Model(&model.Team{}).Count(&teams)
	f.db.Model(&model.Material{}).Count(&materials)
	if teams != int64(len(seedTeams)) || materials != int64(len(seedMaterials)) {
		t.Errorf("teams = %d, materials = %d", teams, materials)
	}

	if _, err := f.auth.VerifyCredentials(ctx, "boss@workflow.local", "boss-pass"); err != nil {
		t.Errorf("seeded admin cannot sign in: %v", err)
	}
}

func TestSeedRequiresAdminPassword(t *testing.T) {
	f := newFixture(t)
	seeder := NewSeeder(f.users,
		repository.NewTeamRepository(f.db),
		repository.NewMaterialRepository(f.db),
		repository.NewTransactionManager(f.db),
	)

	if _, err := seeder.Seed(context.Background(), SeedOptions{AdminEmail: "boss@workflow.local"}); err == nil {
		t.Fatal("Seed() without a password succeeded")
	}
}
