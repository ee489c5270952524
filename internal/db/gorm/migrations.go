package gorm

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: grouping tasks table
		{
			ID: "001_grouping_tasks",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate creates the table with all indexes from struct tags
				return tx.AutoMigrate(&GroupingTask{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("grouping_tasks")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}
