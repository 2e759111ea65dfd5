package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/storage"
	"github.com/stretchr/testify/require"
)

func sampleRecord(content string) canvas.Record {
	text := canvas.NewText(content)
	text.ID = "t1"
	text.X, text.Y = 10, 20

	shape := canvas.NewShape(canvas.ShapeCircle)
	shape.ID = "s1"
	shape.ZIndex = 2

	return canvas.Record{
		Elements:        []canvas.Element{text, shape},
		BackgroundColor: "#fafafa",
	}
}

// testStoreContract runs the behaviour every Store implementation shares.
func testStoreContract(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	ctx := context.Background()

	t.Run("create twice", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		require.NoError(t, store.CreateDesign(ctx, "d1"))

		err := store.CreateDesign(ctx, "d1")
		if !errors.Is(err, storage.ErrDesignExists) {
			t.Errorf("expected ErrDesignExists, got %v", err)
		}

		exists, err := store.DesignExists(ctx, "d1")
		require.NoError(t, err)

		if !exists {
			t.Error("expected design to exist")
		}
	})

	t.Run("missing design", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)

		exists, err := store.DesignExists(ctx, "nope")
		require.NoError(t, err)

		if exists {
			t.Error("expected design not to exist")
		}

		_, err = store.SaveRecord(ctx, "nope", sampleRecord("x"))
		if !errors.Is(err, storage.ErrDesignNotFound) {
			t.Errorf("SaveRecord: expected ErrDesignNotFound, got %v", err)
		}

		_, err = store.LatestRecord(ctx, "nope")
		if !errors.Is(err, storage.ErrDesignNotFound) {
			t.Errorf("LatestRecord: expected ErrDesignNotFound, got %v", err)
		}

		_, err = store.ListVersions(ctx, "nope")
		if !errors.Is(err, storage.ErrDesignNotFound) {
			t.Errorf("ListVersions: expected ErrDesignNotFound, got %v", err)
		}

		err = store.DeleteDesign(ctx, "nope")
		if !errors.Is(err, storage.ErrDesignNotFound) {
			t.Errorf("DeleteDesign: expected ErrDesignNotFound, got %v", err)
		}
	})

	t.Run("never saved", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		require.NoError(t, store.CreateDesign(ctx, "d1"))

		_, err := store.LatestRecord(ctx, "d1")
		if !errors.Is(err, storage.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}

		versions, err := store.ListVersions(ctx, "d1")
		require.NoError(t, err)

		if len(versions) != 0 {
			t.Errorf("expected no versions, got %d", len(versions))
		}
	})

	t.Run("latest wins", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		require.NoError(t, store.CreateDesign(ctx, "d1"))

		first, err := store.SaveRecord(ctx, "d1", sampleRecord("first"))
		require.NoError(t, err)

		second, err := store.SaveRecord(ctx, "d1", sampleRecord("second"))
		require.NoError(t, err)

		if first == second {
			t.Error("expected distinct version ids")
		}

		rec, err := store.LatestRecord(ctx, "d1")
		require.NoError(t, err)
		require.Len(t, rec.Elements, 2)

		text, ok := rec.Elements[0].(*canvas.Text)
		require.True(t, ok, "first element should be text, got %T", rec.Elements[0])

		if text.Content != "second" || text.X != 10 || text.Y != 20 {
			t.Errorf("unexpected text element %+v", text)
		}

		if rec.BackgroundColor != "#fafafa" {
			t.Errorf("expected background #fafafa, got %q", rec.BackgroundColor)
		}

		if rec.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be stamped")
		}

		versions, err := store.ListVersions(ctx, "d1")
		require.NoError(t, err)
		require.Len(t, versions, 2)

		if versions[0].ID != second || versions[1].ID != first {
			t.Errorf("expected newest first, got %+v", versions)
		}

		if versions[0].Elements != 2 || versions[0].DesignID != "d1" {
			t.Errorf("unexpected version summary %+v", versions[0])
		}
	})

	t.Run("delete removes versions", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		require.NoError(t, store.CreateDesign(ctx, "d1"))

		_, err := store.SaveRecord(ctx, "d1", sampleRecord("x"))
		require.NoError(t, err)
		require.NoError(t, store.DeleteDesign(ctx, "d1"))

		_, err = store.LatestRecord(ctx, "d1")
		if !errors.Is(err, storage.ErrDesignNotFound) {
			t.Errorf("expected ErrDesignNotFound after delete, got %v", err)
		}

		require.NoError(t, store.CreateDesign(ctx, "d1"))

		versions, err := store.ListVersions(ctx, "d1")
		require.NoError(t, err)

		if len(versions) != 0 {
			t.Errorf("recreated design must start without versions, got %d", len(versions))
		}
	})
}
