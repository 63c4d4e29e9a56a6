package database

import (
	"context"
	"testing"

	"realestate-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection would get its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	for _, m := range []any{&models.User{}, &models.SupplyRecord{}, &models.DemandRecord{}, &models.AuditLog{}, &models.SyncIssue{}} {
		assert.True(t, db.Migrator().HasTable(m), "%T table missing", m)
	}
	require.NoError(t, Ping(context.Background(), db))
}

func TestCheckConstraintRejectsUnknownPropertyType(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	err := db.Exec(`INSERT INTO supply_properties (id, title, locality, property_type, listing_type, price)
		VALUES ('x', 't', 'l', 'Castle', 'Rent', 1)`).Error
	assert.Error(t, err)

	err = db.Exec(`INSERT INTO supply_properties (id, title, locality, property_type, listing_type, price)
		VALUES ('y', 't', 'l', 'Flat', 'Rent', 1)`).Error
	assert.NoError(t, err)
}
