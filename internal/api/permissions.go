package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serroba/design-studio/internal/acl"
)

// GrantRequest is the request body for granting a role.
type GrantRequest struct {
	Role string `json:"role"` // viewer | editor | owner
}

// handleListPermissions handles GET /designs/{designID}/permissions.
func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionShare) {
		return
	}

	perms, err := s.permissions.ListPermissions(designID)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, perms)
}

// handleGrant handles PUT /designs/{designID}/permissions/{userID}.
func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionShare) {
		return
	}

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", errBadRequest, err))

		return
	}

	role, err := acl.ParseRole(req.Role)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	perm := acl.Permission{DesignID: designID, UserID: chi.URLParam(r, "userID"), Role: role}

	if err := s.permissions.Grant(perm.DesignID, perm.UserID, perm.Role); err != nil {
		s.fail(w, r, err)

		return
	}

	s.logger.Info("role granted",
		"design_id", designID, "user_id", perm.UserID, "role", perm.Role.String(),
		"by", UserIDFromContext(r.Context()))

	writeJSON(w, http.StatusOK, perm)
}

// handleRevoke handles DELETE /designs/{designID}/permissions/{userID}.
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	if !s.authorize(w, r, designID, acl.ActionShare) {
		return
	}

	userID := chi.URLParam(r, "userID")

	if err := s.permissions.Revoke(designID, userID); err != nil {
		s.fail(w, r, err)

		return
	}

	s.logger.Info("role revoked", "design_id", designID, "user_id", userID, "by", UserIDFromContext(r.Context()))

	w.WriteHeader(http.StatusNoContent)
}
