package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socialnet/cache"
	"socialnet/cache/local"
	"socialnet/config"
	dbadapter "socialnet/db"
	"socialnet/model"
)

// SetupTestDB creates an in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	// One connection keeps concurrent writers queued instead of tripping
	// SQLite table locks.
	sqlDB, err := db.DB()
	require.NoError(t, err, "SetupTestDB: DB")
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(config.CacheConfig{}) // empty RedisAddr → LocalCache
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}

// SetupClockedCache creates a LocalCache whose expiry checks read the given
// clock. Tests advance the clock instead of sleeping.
func SetupClockedCache(t *testing.T, now func() time.Time) cache.Cache {
	t.Helper()
	c, err := local.NewCache(local.Config{GCInterval: time.Minute, Now: now})
	require.NoError(t, err, "SetupClockedCache: NewCache")
	t.Cleanup(c.Close)
	return c
}
