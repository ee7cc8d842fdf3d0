package repository

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"charachat/internal/database"
	"charachat/internal/models"
)

func TestSQLiteExchangeRepo_Create(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "exchanges.db"), slog.Default())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	repo := NewSQLiteExchangeRepo(db)
	ex := &models.Exchange{
		ID:             uuid.New(),
		RequestID:      "req-1",
		Transport:      models.TransportHTTP,
		Message:        "hi",
		Status:         429,
		UpstreamStatus: 429,
		Error:          "upstream API returned 429",
		DurationMS:     12,
		CreatedAt:      time.Now(),
	}
	if err := repo.Create(ctx, ex); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var (
		id, transport, message string
		status, upstream       int
	)
	err = db.QueryRowContext(ctx,
		"SELECT id, transport, message, status, upstream_status FROM exchanges WHERE request_id = ?", "req-1",
	).Scan(&id, &transport, &message, &status, &upstream)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if id != ex.ID.String() || transport != "http" || message != "hi" || status != 429 || upstream != 429 {
		t.Errorf("row = (%s, %s, %s, %d, %d), want the recorded exchange", id, transport, message, status, upstream)
	}

	if err := repo.Create(ctx, ex); err == nil {
		t.Error("expected duplicate id to fail")
	}
}
