package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/canvas"
)

// maxRecordBytes bounds PUT bodies. Image sources are inlined as data URLs.
const maxRecordBytes = 16 << 20

// CreateDesignRequest is the request body for creating a design.
// An empty ID is replaced with a generated one.
type CreateDesignRequest struct {
	ID string `json:"id"`
}

// CreateDesignResponse is the response body for creating a design.
type CreateDesignResponse struct {
	ID string `json:"id"`
}

// GetDesignResponse is the response body for getting a design.
type GetDesignResponse struct {
	ID     string        `json:"id"`
	Record canvas.Record `json:"record"`
	// Open reports whether the record comes from a live editing session
	// rather than the last save.
	Open bool `json:"open"`
}

// SaveDesignResponse is the response body for replacing a design.
type SaveDesignResponse struct {
	ID        string `json:"id"`
	VersionID string `json:"versionId"`
}

// handleCreateDesign handles POST /designs.
func (s *Server) handleCreateDesign(w http.ResponseWriter, r *http.Request) {
	var req CreateDesignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, fmt.Errorf("%w: invalid request body", errBadRequest))

		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if err := s.gateway.Store().CreateDesign(r.Context(), req.ID); err != nil {
		s.fail(w, r, err)

		return
	}

	userID := UserIDFromContext(r.Context())

	if s.permissions != nil {
		if err := s.permissions.Grant(req.ID, userID, acl.Owner); err != nil {
			s.fail(w, r, err)

			return
		}
	}

	s.logger.Info("design created", "design_id", req.ID, "user_id", userID)

	writeJSON(w, http.StatusCreated, CreateDesignResponse(req))
}

// handleGetDesign handles GET /designs/{designID}.
func (s *Server) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionRead) {
		return
	}

	rec, open, err := s.currentRecord(r.Context(), designID, UserIDFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, GetDesignResponse{ID: designID, Record: rec, Open: open})
}

// handlePutDesign handles PUT /designs/{designID}. The body is a record; it
// becomes the newest version, and an open session takes it over as one
// undoable step.
func (s *Server) handlePutDesign(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionWrite) {
		return
	}

	var rec canvas.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBytes)).Decode(&rec); err != nil {
		s.fail(w, r, fmt.Errorf("%w: invalid record: %w", errBadRequest, err))

		return
	}

	// Stored records carry unique ids, like the live document.
	rec = canvas.FromRecord(rec).Record(rec.CreatedAt)

	userID := UserIDFromContext(r.Context())

	var (
		versionID string
		err       error
	)

	if session := s.manager.Get(designID); session != nil && !session.Closed() {
		session.Replace(rec)
		versionID, err = session.Save(r.Context(), userID)
	} else {
		versionID, err = s.gateway.Save(r.Context(), designID, userID, rec)
	}

	if err != nil {
		s.fail(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, SaveDesignResponse{ID: designID, VersionID: versionID})
}

// handleDeleteDesign handles DELETE /designs/{designID}. Any open session
// is dropped without saving and every permission on the design is revoked.
func (s *Server) handleDeleteDesign(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionDelete) {
		return
	}

	s.manager.Discard(designID)

	if err := s.gateway.Store().DeleteDesign(r.Context(), designID); err != nil {
		s.fail(w, r, err)

		return
	}

	if s.permissions != nil {
		if err := s.permissions.RevokeAll(designID); err != nil {
			s.logger.Warn("revoke permissions failed", "design_id", designID, "error", err)
		}
	}

	s.logger.Info("design deleted", "design_id", designID, "user_id", UserIDFromContext(r.Context()))

	w.WriteHeader(http.StatusNoContent)
}

// handleListVersions handles GET /designs/{designID}/versions.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionRead) {
		return
	}

	versions, err := s.gateway.Versions(r.Context(), designID, UserIDFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// handleExport handles GET /designs/{designID}/export.png.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionRead) {
		return
	}

	rec, _, err := s.currentRecord(r.Context(), designID, UserIDFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)

		return
	}

	var buf bytes.Buffer
	if err := s.projector.WritePNG(&buf, rec); err != nil {
		s.fail(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")

	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("export write failed", "design_id", designID, "error", err)
	}
}

// currentRecord prefers the live session over the last save.
func (s *Server) currentRecord(ctx context.Context, designID, userID string) (canvas.Record, bool, error) {
	if session := s.manager.Get(designID); session != nil && !session.Closed() {
		return session.Record(), true, nil
	}

	rec, err := s.gateway.LoadLatest(ctx, designID, userID)

	return rec, false, err
}
