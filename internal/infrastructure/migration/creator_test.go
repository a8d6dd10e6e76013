package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/shopfront/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Users-Table", "add_users_table"},
		{"ADD_USERS_TABLE", "add_users_table"},
		{"add__users__table", "add_users_table"},
		{"Add Users 123", "add_users_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"über table", "ber_table"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add coupons", "Coupon codes for checkout")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_coupons.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_coupons.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_coupons")
	assert.Contains(t, string(up), "Coupon codes for checkout")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	second, err := CreateMigration(dir, "Add-Gift-Cards", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_add_gift_cards", second.String())
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_late.up.sql":         {Data: []byte("--")},
		"000010_late.down.sql":       {Data: []byte("--")},
		"000002_add_users.up.sql":    {Data: []byte("--")},
		"000002_add_users.down.sql":  {Data: []byte("--")},
		"000003_no_rollback.up.sql":  {Data: []byte("--")},
		"README.md":                  {Data: []byte("notes")},
		"000004_orphan.down.sql":     {Data: []byte("--")},
		"nested/000005_deep.up.sql":  {Data: []byte("--")},
		"embed.go":                   {Data: []byte("package migrations")},
		"000006_Bad-Name.up.sql":     {Data: []byte("--")},
		"000007_.up.sql":             {Data: []byte("--")},
		"000008_valid_name.up.sql":   {Data: []byte("--")},
		"000008_valid_name.down.sql": {Data: []byte("--")},
	}

	list, err := ListMigrations(fsys)
	require.NoError(t, err)

	require.Len(t, list, 4)
	assert.Equal(t, Migration{Version: 2, Name: "add_users", HasDown: true}, list[0])
	assert.Equal(t, Migration{Version: 3, Name: "no_rollback", HasDown: false}, list[1])
	assert.Equal(t, uint(8), list[2].Version)
	assert.Equal(t, uint(10), list[3].Version)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	list, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrations(t *testing.T) {
	list, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for i, m := range list {
		assert.Equal(t, uint(i+1), m.Version, "migrations are numbered without gaps")
		assert.True(t, m.HasDown, "%s has no rollback", m)
	}
}

func TestMigrateLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &migrateLogger{log: zap.New(core)}

	l.Printf("Start buffering %d/u %s\n", 1, "init_schema")
	assert.False(t, l.Verbose())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Start buffering 1/u init_schema", logs.All()[0].Message)
}
