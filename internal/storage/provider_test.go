package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webaudit360/internal/audit"
	"github.com/JakeFAU/webaudit360/internal/config"
	"github.com/JakeFAU/webaudit360/internal/storage/memory"
	"github.com/JakeFAU/webaudit360/internal/storage/sqlite"
)

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	p, err := Open(context.Background(), config.DBConfig{Driver: config.DriverMemory}, Options{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.JobStore{}, p)
	require.NoError(t, p.Ping(context.Background()))
	require.NoError(t, p.Close())
}

func TestOpenSQLiteMigratesAndStores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.DBConfig{
		Driver:      config.DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "audits.db"),
		AutoMigrate: true,
	}
	p, err := Open(ctx, cfg, Options{}, nil)
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck
	assert.IsType(t, &sqlite.JobStore{}, p)

	job, err := p.Create(ctx, "https://example.com/", time.Now(), "<title>t</title>")
	require.NoError(t, err)
	got, err := p.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.URL, got.URL)
}

func TestOpenSQLiteWithoutMigrationHasNoTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.DBConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "bare.db")}
	p, err := Open(ctx, cfg, Options{}, nil)
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck

	_, err = p.Get(ctx, 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, audit.ErrJobNotFound)
}

func TestOpenMigrateOption(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.DBConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "opt.db")}
	p, err := Open(ctx, cfg, Options{Migrate: true}, nil)
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck

	_, err = p.Get(ctx, 1)
	require.ErrorIs(t, err, audit.ErrJobNotFound)
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.DBConfig{Driver: "mongo"}, Options{}, nil)
	require.ErrorContains(t, err, "unknown db driver")
}

func TestOpenPostgresRejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.DBConfig{Driver: config.DriverPostgres}, Options{}, nil)
	require.ErrorContains(t, err, "db.dsn is required")
}
