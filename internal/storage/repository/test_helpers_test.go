package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-bot/internal/migrations"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, path))
	return storage
}

// TestDataFactory создаёт тестовые данные через публичные методы хранилища.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт пользователя и применяет к нему mutate.
func (f *TestDataFactory) CreateUser(t *testing.T, identity string, mutate func(u *models.User)) *models.User {
	t.Helper()
	ctx := context.Background()
	u, created, err := f.storage.GetOrCreateUser(ctx, identity, time.Now())
	require.NoError(t, err)
	require.True(t, created)
	if mutate != nil {
		mutate(u)
		require.NoError(t, f.storage.UpdateUser(ctx, u))
	}
	return u
}

// CreatePayment создаёт платёжный запрос в статусе pending.
func (f *TestDataFactory) CreatePayment(t *testing.T, owner, reference, externalID string) *models.PaymentRequest {
	t.Helper()
	req := &models.PaymentRequest{
		ReferenceID: reference,
		ExternalID:  externalID,
		Owner:       owner,
		PlanType:    models.PlanWeekly,
		Amount:      50,
		Currency:    "ETB",
		PhoneNumber: "251921234567",
	}
	require.NoError(t, f.storage.CreatePaymentRequest(context.Background(), req))
	return req
}
