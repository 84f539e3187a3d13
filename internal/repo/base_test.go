package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

type row struct {
	ID      int
	Name    string
	Notes   string
	OwnerID string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&row{}))
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)
	require.Same(t, db, base.db)
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	require.Equal(t, ctx, withCtx.Statement.Context)

	require.Same(t, db, base.DB(nil))
}

func TestSearchOwnedByAndFindPage(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	other := uuid.New()
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&row{Name: fmt.Sprintf("Cliente %d", i), Notes: "x", OwnerID: owner.String()}).Error)
	}
	require.NoError(t, db.Create(&row{Name: "Outro 100%", Notes: "special", OwnerID: other.String()}).Error)

	var rows []row
	query := OwnedBy(db.Model(&row{}), "owner_id", &owner)
	query = Search(query, "CLIENTE", "name", "notes")
	total, err := FindPage(query, pagination.Params{Page: 2, Limit: 2}, "id DESC", &rows)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, rows, 2)
	require.Equal(t, "Cliente 3", rows[0].Name)

	rows = nil
	total, err = FindPage(Search(db.Model(&row{}), "100%", "name"), pagination.Params{}, "", &rows)
	require.NoError(t, err)
	require.EqualValues(t, 1, total, "wildcards in the term are matched literally")

	rows = nil
	total, err = FindPage(OwnedBy(db.Model(&row{}), "owner_id", nil), pagination.Params{}, "id", &rows)
	require.NoError(t, err)
	require.EqualValues(t, 6, total)
	require.Len(t, rows, 6)
}
