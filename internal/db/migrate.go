package db

import (
	"fmt"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

func models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Category{},
		&model.Attribute{},
		&model.Product{},
		&model.Color{},
		&model.Size{},
		&model.ProductAttribute{},
		&model.Cart{},
		&model.CartItem{},
		&model.Address{},
		&model.Payment{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// AutoMigrate creates or updates every table on conn
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.SetupJoinTable(&model.Product{}, "Attributes", &model.ProductAttribute{}); err != nil {
		return fmt.Errorf("failed to set up product attribute join table: %w", err)
	}
	return conn.AutoMigrate(models()...)
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations")

	if err := AutoMigrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(DB); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed", logger.Fields{
		"models_count": len(models()),
	})
	return nil
}

func seedInitialData(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Categories already seeded, skipping", logger.Fields{
			"existing_count": count,
		})
		return nil
	}

	categories := []model.Category{
		{Name: "Tops", Slug: "tops"},
		{Name: "Bottoms", Slug: "bottoms"},
		{Name: "Outerwear", Slug: "outerwear"},
		{Name: "Accessories", Slug: "accessories"},
	}
	if err := conn.Create(&categories).Error; err != nil {
		return err
	}

	logger.Info("Categories seeded", logger.Fields{
		"total": len(categories),
	})
	return nil
}
