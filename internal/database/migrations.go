package database

import (
	"workflow/internal/model"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate applies every pending schema migration.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	return m.Migrate()
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20250601_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.User{}, &model.Team{}, &model.Material{},
					&model.MaterialRequest{}, &model.MaterialRequestItem{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.MaterialRequestItem{}, &model.MaterialRequest{},
					&model.Material{}, &model.Team{}, &model.User{})
			},
		},
		{
			ID: "20250615_create_audit_logs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.AuditLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.AuditLog{})
			},
		},
		{
			ID: "20250702_add_material_calc_rules",
			Migrate: func(tx *gorm.DB) error {
				for _, column := range []string{"CalcBasis", "CalcFactor", "CalcRounding"} {
					if tx.Migrator().HasColumn(&model.Material{}, column) {
						continue
					}
					if err := tx.Migrator().AddColumn(&model.Material{}, column); err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				for _, column := range []string{"CalcRounding", "CalcFactor", "CalcBasis"} {
					if err := tx.Migrator().DropColumn(&model.Material{}, column); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
