package store

import (
	"context"
	stderrors "errors"
	"os"
	"testing"
)

// Runs against a live server when CONTRIBNET_TEST_MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CONTRIBNET_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CONTRIBNET_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	st, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "contribnet_test"})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	snap := testSnapshot(t)
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Cleanup(func() { st.Delete(context.Background(), snap.ID) })

	got, err := st.Load(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got.Metrics) != len(snap.Metrics) || got.Metrics[0] != snap.Metrics[0] {
		t.Errorf("Load() metrics = %+v", got.Metrics)
	}

	list, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range list {
		if s.ID == snap.ID {
			found = s.Metrics == nil
		}
	}
	if !found {
		t.Error("List() should include the snapshot without metric rows")
	}

	if err := st.Delete(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(ctx, snap.ID); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Delete = %v, want ErrNotFound", err)
	}
}
