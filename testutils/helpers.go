package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trove-app/trove/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if len(models) > 0 {
		err = db.AutoMigrate(models...)
		require.NoError(t, err)
	}

	return db
}

// TestConfig returns a config suitable for unit tests: short lifetimes, no
// background cleanup.
func TestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			SecretKey:   "test-secret-key-for-unit-tests-0123456789",
			Environment: "development",
		},
		AccessToken: config.AccessTokenConfig{
			Expiry: 15 * time.Minute,
		},
		RefreshToken: config.RefreshTokenConfig{
			Expiry:          time.Hour,
			CleanupInterval: 0,
		},
	}
}
