package main

import (
	"context"
	"errors"
	"log"

	"github.com/trove-app/trove/app"
	"github.com/trove-app/trove/config"
	"github.com/trove-app/trove/handlers/auth"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// gormUserResolver reads the surrounding application's user table. Only the
// fields the refresh endpoint needs are selected.
type gormUserResolver struct {
	db *gorm.DB
}

func (r *gormUserResolver) ResolveUser(ctx context.Context, userID string) (*auth.User, error) {
	var row struct {
		ID       string
		IsActive bool
	}

	err := r.db.WithContext(ctx).
		Table("users").
		Select("id", "is_active").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &auth.User{ID: row.ID, IsActive: row.IsActive}, nil
}

func main() {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app.New(cfg,
		fx.Provide(func(db *gorm.DB) auth.UserResolver {
			return &gormUserResolver{db: db}
		}),
	).Run()
}
