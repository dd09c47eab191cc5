package service

import (
	"context"
	"fmt"

	"workflow/internal/model"
	"workflow/internal/repository"
)

var seedTeams = []string{"C3 Aerial Crew", "Underground Crew", "Fiber Splicing Team"}

var seedMaterials = []struct {
	SapPN, Name, Description, Unit string
}{
	{"1252068", `1.25" innerduct / conduit plug`, "Innerduct plug for 1.25 inch conduit", "EA"},
	{"1252069", `2.5" innerduct / conduit plug`, "Innerduct plug for 2.5 inch conduit", "EA"},
}

type SeedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type SeedResult struct {
	AdminCreated      bool
	TeamsCreated      int
	MaterialsUpserted int
}

// Seeder loads the bootstrap admin and sample reference data. Running it twice changes nothing.
type Seeder struct {
	users     UserService
	teams     repository.TeamRepository
	materials repository.MaterialRepository
	tx        repository.TransactionManager
}

func NewSeeder(users UserService, teams repository.TeamRepository, materials repository.MaterialRepository, tx repository.TransactionManager) *Seeder {
	return &Seeder{users: users, teams: teams, materials: materials, tx: tx}
}

func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	res := &SeedResult{}

	name := opts.AdminName
	if name == "" {
		name = "Admin"
	}
	created, err := s.users.EnsureAdmin(ctx, name, opts.AdminEmail, opts.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	res.AdminCreated = created

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, teamName := range seedTeams {
			_, err := s.teams.FindByName(txCtx, teamName)
			if err == nil {
				continue
			}
			if !repository.IsNotFound(err) {
				return err
			}
			if err := s.teams.Create(txCtx, &model.Team{Name: teamName}); err != nil {
				return err
			}
			res.TeamsCreated++
		}

		for _, sm := range seedMaterials {
			m, err := s.materials.FindBySapPN(txCtx, sm.SapPN)
			isNew := repository.IsNotFound(err)
			if err != nil && !isNew {
				return err
			}
			if isNew {
				m = &model.Material{SapPN: sm.SapPN, CalcRounding: model.RoundingNone}
			}
			m.Name = sm.Name
			m.Description = optionalString(sm.Description)
			m.Unit = optionalString(sm.Unit)
			m.IsActive = true

			if isNew {
				err = s.materials.Create(txCtx, m)
			} else {
				err = s.materials.Update(txCtx, m)
			}
			if err != nil {
				return err
			}
			res.MaterialsUpserted++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed reference data: %w", err)
	}
	return res, nil
}
