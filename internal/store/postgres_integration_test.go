package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Exercises the conditional transition update and flag recomputation against
// a real Postgres. Skipped unless CADENCE_TEST_DATABASE_URL is set.
func TestTransitionAndRecomputeAgainstPostgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CADENCE_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("CADENCE_TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	if err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	s := NewPostgresStore(db)

	if err := s.InsertClient(ctx, Client{ID: "cl-1", Name: "Acme Coffee", Slug: "acme-coffee"}); err != nil {
		t.Fatalf("insert client: %v", err)
	}
	if err := s.InsertPost(ctx, Post{
		ID:        "post-1",
		ClientID:  "cl-1",
		Title:     "Autumn menu teaser",
		Status:    "draft",
		CreatedBy: "Robin",
	}); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	changed, err := s.TransitionPost(ctx, "post-1", "draft", "client_review", true, true, false)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !changed {
		t.Fatal("transition guard should have matched the draft status")
	}

	// The guard status no longer matches: a concurrent writer would lose here.
	changed, err = s.TransitionPost(ctx, "post-1", "draft", "approved", true, false, false)
	if err != nil {
		t.Fatalf("stale transition: %v", err)
	}
	if changed {
		t.Fatal("stale guard must not update the row")
	}

	post, err := s.GetPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Status != "client_review" || !post.VisibleToClient || !post.AwaitingClientApproval {
		t.Fatalf("unexpected post state after transition: %+v", post)
	}

	// Damage the derived flags out-of-band, then recompute twice.
	if _, err := db.ExecContext(ctx, `UPDATE posts SET visible_to_client=FALSE WHERE id='post-1'`); err != nil {
		t.Fatalf("damage flags: %v", err)
	}
	touched, err := s.RecomputeFlagsForStatus(ctx, "client_review", true, true, false)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if touched != 1 {
		t.Fatalf("first recompute touched %d rows, want 1", touched)
	}
	touched, err = s.RecomputeFlagsForStatus(ctx, "client_review", true, true, false)
	if err != nil {
		t.Fatalf("recompute (second pass): %v", err)
	}
	if touched != 0 {
		t.Fatalf("second recompute touched %d rows, want 0", touched)
	}

	post, err = s.GetPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("get post after recompute: %v", err)
	}
	if post.Status != "client_review" {
		t.Fatalf("recompute must never change status, got %s", post.Status)
	}
	if !post.VisibleToClient {
		t.Fatal("recompute did not repair visible_to_client")
	}
}

func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}
