//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"complyform/db/migrations"
)

// PostgresContainer контейнер Postgres с применёнными миграциями
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sqlx.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("complyform"),
		tcpostgres.WithUsername("complyform"),
		tcpostgres.WithPassword("complyform"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := migrations.Run(conn.DB); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return &PostgresContainer{Container: container, DB: conn}
}

// Truncate очищает таблицы, оставляя справочник юрисдикций из миграций
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
        TRUNCATE organizations, bids, subcontractor_directory, subcontractors, bid_subcontractors,
                 validation_results, opportunities, pre_bid_assessments RESTART IDENTITY CASCADE`)
	return err
}
