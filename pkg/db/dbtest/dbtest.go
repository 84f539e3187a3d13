// Package dbtest opens isolated in-memory SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Open returns a migrated database private to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

// Client wraps Open in the transaction-aware db client.
func Client(t *testing.T) (*gorm.DB, *db.Client) {
	t.Helper()
	conn := Open(t)
	return conn, db.NewFromGorm(conn)
}

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, conn *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "User " + string(role),
		Email:        fmt.Sprintf("%s_%s@example.com", role, uuid.NewString()[:8]),
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// SeedProduct inserts a catalog product priced at price.
func SeedProduct(t *testing.T, conn *gorm.DB, name string, price string, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Code:   "P-" + uuid.NewString()[:8],
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Unit:   "un",
		Active: active,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}
