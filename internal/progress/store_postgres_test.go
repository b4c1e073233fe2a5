package progress_test

import (
	"slices"
	"testing"

	"github.com/p-n-ai/pai-literacy/internal/platform/database/dbtest"
	"github.com/p-n-ai/pai-literacy/internal/progress"
)

func TestPostgresStore(t *testing.T) {
	db := dbtest.New(t)

	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	testStore(t, store)
}

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := progress.NewPostgresStore(nil); err == nil {
		t.Error("NewPostgresStore(nil) should fail")
	}
}

func TestPostgresStore_EqualTimestampsListInCreationOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"l1", "l2", "l3", "l4"} {
		key := progress.Key{UserID: "u1", ActivityType: progress.ActivityLesson, ActivityID: id}
		if _, err := store.Upsert(ctx, progress.RecordInput{Key: key}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Pool.Exec(ctx,
		`UPDATE activity_progress SET updated_at = '2026-03-01T09:00:00Z', created_at = '2026-03-01T09:00:00Z'`,
	); err != nil {
		t.Fatal(err)
	}

	log, err := store.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got := activityIDs(log); !slices.Equal(got, []string{"l4", "l3", "l2", "l1"}) {
		t.Errorf("order = %v, want newest creation first", got)
	}
}
