//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"navi-route-go/internal/database"
	"navi-route-go/internal/model"
	"navi-route-go/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// setupPostgres запускает PostgreSQL в контейнере и возвращает подключение с выполненными миграциями
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_navigation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_navigation sslmode=disable", host, port.Port())

	log := logrus.New()
	log.SetOutput(io.Discard)

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dsn, log)
		if err != nil {
			return false
		}
		return database.HealthCheck(db) == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}

func TestRouteHistoryRepository_CreateAndList(t *testing.T) {
	db := setupPostgres(t)
	repo := repository.NewRouteHistoryRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := &model.RouteRecord{
			ID:                uuid.New().String(),
			Fingerprint:       fmt.Sprintf("fp-%d", i),
			StartLat:          40.7128,
			StartLng:          -74.0060,
			EndLat:            37.7749,
			EndLng:            -122.4194 + float64(i),
			PointsCount:       11,
			DistanceMeters:    4_129_000,
			Source:            "fallback",
			CalculationTimeMs: 0.05,
		}
		require.NoError(t, repo.Create(ctx, record))
		time.Sleep(5 * time.Millisecond)
	}

	records, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, records, 2)
	assert.Equal(t, "fp-4", records[0].Fingerprint, "newest first")
	assert.Equal(t, "fp-3", records[1].Fingerprint)

	records, _, err = repo.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fp-0", records[0].Fingerprint)
}
