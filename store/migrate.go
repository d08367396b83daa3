package store

import (
	"context"
	"fmt"

	"ormperfapi/models"

	"gorm.io/gorm/clause"
)

func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.SetupJoinTable(&models.Order{}, "Products", &models.OrderProduct{}); err != nil {
		return fmt.Errorf("setup join table: %w", err)
	}

	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Order{}, &models.OrderProduct{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return s.seedCategories(ctx)
}

func (s *Store) seedCategories(ctx context.Context) error {
	seed := models.SeedCategories()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}
