package repository

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"charachat/internal/database"
	"charachat/internal/models"
)

// Set TEST_DATABASE_URL (postgres://...) to run against a scratch database.
func TestExchangeRepo_Create(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresPool: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for i := 0; i < 2; i++ {
		if err := database.RunMigrations(ctx, pool, logger); err != nil {
			t.Fatalf("RunMigrations (pass %d): %v", i+1, err)
		}
	}

	repo := NewExchangeRepo(pool)
	ex := &models.Exchange{
		ID:         uuid.New(),
		RequestID:  "req-" + uuid.NewString(),
		Transport:  models.TransportWS,
		Message:    "hi",
		Reply:      "hello",
		Status:     200,
		DurationMS: 42,
		CreatedAt:  time.Now(),
	}
	if err := repo.Create(ctx, ex); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM exchanges WHERE id = $1", ex.ID)
	})

	var (
		transport, reply string
		status           int
	)
	err = pool.QueryRow(ctx,
		"SELECT transport, reply, status FROM exchanges WHERE id = $1", ex.ID,
	).Scan(&transport, &reply, &status)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if transport != "ws" || reply != "hello" || status != 200 {
		t.Errorf("row = (%s, %s, %d), want the recorded exchange", transport, reply, status)
	}

	if err := repo.Create(ctx, ex); err == nil {
		t.Error("expected duplicate id to fail")
	}
}
