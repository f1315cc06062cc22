package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/FranksOps/leadscout/internal/storage/storagetest"
)

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("LEADSCOUT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: LEADSCOUT_TEST_PG_DSN not set")
	}

	b, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	// The database outlives the test, so every run uses fresh ids and companies.
	storagetest.Run(t, b, "-"+uuid.NewString()[:8])
}

func TestNew_BadDSN(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"); err == nil {
		t.Fatal("expected error for unreachable database")
	}
}
