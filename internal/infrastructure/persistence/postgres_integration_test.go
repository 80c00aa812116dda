//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/infrastructure/migration"
	"github.com/disciplinario/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("disciplinario_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestGormRequestRepository_PostgresIntegration(t *testing.T) {
	db := newPostgresTestDB(t)
	repo := NewGormRequestRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	first := newTestRequest(t, "PEDRO PÉREZ", "1020304050", "Producción", base)
	second := newTestRequest(t, "Ana Núñez", "52000111", "Logística", base.Add(time.Hour))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	t.Run("search folds accented text", func(t *testing.T) {
		filter := disciplinary.DefaultListFilter()
		filter.Search = "pérez"

		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, first.ID, found[0].ID)
	})

	t.Run("jsonb review round trip", func(t *testing.T) {
		require.NoError(t, second.ImposeSanction("Suspensión", "Tres días sin goce", "2026-10-10", "2026-10-12", "admin@empresa.co", base))
		require.NoError(t, repo.Save(ctx, second))

		found, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, disciplinary.StatusSanctioned, found.Status)
		require.NotNil(t, found.Sanction)
		assert.Equal(t, "Suspensión", found.Sanction.Type)
	})

	t.Run("areas", func(t *testing.T) {
		areas, err := repo.Areas(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Logística", "Producción"}, areas)
	})
}
