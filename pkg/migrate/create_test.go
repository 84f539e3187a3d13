package migrate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAtRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "seed receipts", at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20260301090000_seed_receipts.sql"), path)

	_, err = createAt(dir, "Seed  Receipts", at)
	require.ErrorContains(t, err, "already exists")
}
