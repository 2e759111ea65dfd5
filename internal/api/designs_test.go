package api_test

import (
	"bytes"
	"image/png"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/api"
	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestHandleCreateDesign(t *testing.T) {
	t.Parallel()

	t.Run("creates design and grants owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/designs", "carol", `{"id":"poster"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decode[api.CreateDesignResponse](t, rec)
		if resp.ID != "poster" {
			t.Errorf("expected ID 'poster', got %q", resp.ID)
		}

		exists, err := f.store.DesignExists(t.Context(), "poster")
		require.NoError(t, err)

		if !exists {
			t.Error("expected design to exist")
		}

		role, err := f.perms.GetRole("poster", "carol")
		require.NoError(t, err)

		if role != acl.Owner {
			t.Errorf("expected Owner role, got %v", role)
		}
	})

	t.Run("generates an id when none is given", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/designs", "carol", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decode[api.CreateDesignResponse](t, rec)
		if _, err := uuid.Parse(resp.ID); err != nil {
			t.Errorf("expected a generated uuid, got %q", resp.ID)
		}
	})

	t.Run("returns 409 for duplicate design", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/designs", "carol", `{"id":"d1"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}

		role, err := f.perms.GetRole("d1", "alice")
		require.NoError(t, err)

		if role != acl.Owner {
			t.Error("a failed create must not touch existing permissions")
		}
	})

	t.Run("returns 400 for invalid body", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/designs", "carol", "{not json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleGetDesign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	t.Run("never saved design is empty", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodGet, "/designs/d1", "bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[api.GetDesignResponse](t, rec)
		if len(resp.Record.Elements) != 0 || resp.Record.BackgroundColor != "#ffffff" {
			t.Errorf("expected empty white record, got %+v", resp.Record)
		}

		if resp.Open {
			t.Error("no session is open")
		}
	})

	t.Run("unknown design", func(t *testing.T) {
		t.Parallel()

		if rec := f.do(t, http.MethodGet, "/designs/missing", "alice", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("stranger is denied", func(t *testing.T) {
		t.Parallel()

		if rec := f.do(t, http.MethodGet, "/designs/d1", "mallory", ""); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}

func TestHandlePutDesign(t *testing.T) {
	t.Parallel()

	t.Run("saves a version", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPut, "/designs/d1", "erin", shapeRecord)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[api.SaveDesignResponse](t, rec)
		if resp.VersionID == "" {
			t.Error("expected a version id")
		}

		rec = f.do(t, http.MethodGet, "/designs/d1", "bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[api.GetDesignResponse](t, rec)
		require.Len(t, got.Record.Elements, 1)

		if id := canvas.FrameOf(got.Record.Elements[0]).ID; id != "s1" {
			t.Errorf("expected s1, got %q", id)
		}

		rec = f.do(t, http.MethodGet, "/designs/d1/versions", "bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		versions := decode[[]storage.Version](t, rec)
		if len(versions) != 1 || versions[0].ID != resp.VersionID || versions[0].Elements != 1 {
			t.Errorf("unexpected versions %+v", versions)
		}
	})

	t.Run("open session takes the record over", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		session, err := f.manager.Open(t.Context(), "d1", "alice")
		require.NoError(t, err)

		rec := f.do(t, http.MethodPut, "/designs/d1", "alice", shapeRecord)
		require.Equal(t, http.StatusOK, rec.Code)

		if len(session.Record().Elements) != 1 {
			t.Error("expected the session to hold the new record")
		}

		if session.Dirty() {
			t.Error("expected the replaced record to be saved")
		}

		if !session.CanUndo() {
			t.Error("replacing the record should be undoable")
		}

		rec = f.do(t, http.MethodGet, "/designs/d1", "bob", "")
		if got := decode[api.GetDesignResponse](t, rec); !got.Open {
			t.Error("expected the record to come from the open session")
		}
	})

	t.Run("stored ids are unique", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		body := `{"elements":[
			{"type":"shape","x":0,"y":0,"width":30,"height":30},
			{"type":"shape","id":"a","x":0,"y":0,"width":30,"height":30},
			{"type":"shape","id":"a","x":0,"y":0,"width":30,"height":30}
		]}`
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/designs/d1", "alice", body).Code)

		saved, err := f.store.LatestRecord(t.Context(), "d1")
		require.NoError(t, err)
		require.Len(t, saved.Elements, 3)

		ids := make(map[string]bool)
		for _, el := range saved.Elements {
			ids[canvas.FrameOf(el).ID] = true
		}

		if len(ids) != 3 || ids[""] {
			t.Errorf("expected three distinct ids, got %v", ids)
		}

		if saved.BackgroundColor != canvas.DefaultBackground {
			t.Errorf("expected default background, got %q", saved.BackgroundColor)
		}
	})

	t.Run("viewer is denied", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		session, err := f.manager.Open(t.Context(), "d1", "alice")
		require.NoError(t, err)

		rec := f.do(t, http.MethodPut, "/designs/d1", "bob", shapeRecord)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}

		if len(session.Record().Elements) != 0 {
			t.Error("a denied save must not touch the session")
		}
	})

	t.Run("invalid record", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		body := `{"elements":[{"type":"video","id":"v1"}]}`
		if rec := f.do(t, http.MethodPut, "/designs/d1", "alice", body); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleDeleteDesign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.manager.Open(t.Context(), "d1", "alice")
	require.NoError(t, err)

	if rec := f.do(t, http.MethodDelete, "/designs/d1", "erin", ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for editor, got %d", rec.Code)
	}

	rec := f.do(t, http.MethodDelete, "/designs/d1", "alice", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	if f.manager.Get("d1") != nil {
		t.Error("expected the session to be discarded")
	}

	perms, err := f.perms.ListPermissions("d1")
	require.NoError(t, err)

	if len(perms) != 0 {
		t.Errorf("expected permissions to be revoked, got %v", perms)
	}

	if rec := f.do(t, http.MethodGet, "/designs/d1", "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestHandleExport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/designs/d1", "alice", shapeRecord)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/designs/d1/export.png", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)

	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Errorf("expected 60x40 fitted export, got %dx%d", b.Dx(), b.Dy())
	}

	r, g, b, _ := img.At(30, 20).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("expected red at the centre, got %d,%d,%d", r>>8, g>>8, b>>8)
	}

	if rec := f.do(t, http.MethodGet, "/designs/d1/export.png", "mallory", ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
