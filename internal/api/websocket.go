package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/editor"
	"github.com/serroba/design-studio/internal/manipulate"
	"github.com/serroba/design-studio/internal/ws"
)

// handleWebSocket handles GET /ws?designId={id}. Users who may write take
// the session's editing slot; viewers, and writers arriving while someone
// else edits, watch read-only.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	designID := r.URL.Query().Get("designId")
	if designID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "designId query parameter is required"})

		return
	}

	if !s.authorize(w, r, designID, acl.ActionRead) {
		return
	}

	userID := UserIDFromContext(r.Context())
	writable := s.check(r, designID, acl.ActionWrite) == nil

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "design_id", designID, "error", err)

		return
	}

	client := ws.NewClient(uuid.New().String(), userID, conn)
	logger := s.logger.With("design_id", designID, "user_id", userID, "client_id", client.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read loop only notices cancellation once the connection closes.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	s.hub.Register(client)
	defer func() {
		s.hub.Unregister(client)
		_ = client.Close()
	}()

	session, err := s.manager.Open(ctx, designID, userID)
	if err != nil {
		logger.Warn("open design failed", "error", err)
		_ = client.SendError(ws.ErrorCodeLoadFailed, "failed to open design")

		return
	}

	if writable {
		if err := session.Attach(client.ID, userID); err != nil {
			if !errors.Is(err, editor.ErrSessionBusy) {
				logger.Warn("attach failed", "error", err)
				_ = client.SendError(ws.ErrorCodeInternalError, "failed to open design")

				return
			}

			writable = false
			_ = client.SendError(ws.ErrorCodeReadOnly, "design is being edited elsewhere; opened read-only")
		} else {
			defer func() {
				session.Detach(client.ID)

				// Pending edits outlive the connection.
				if session.Dirty() && !session.Closed() {
					session.SaveAsync(context.WithoutCancel(ctx), userID, nil)
				}
			}()
		}
	}

	client.ReadOnly = !writable
	s.hub.Subscribe(client, designID)

	state := session.State()
	state.ReadOnly = client.ReadOnly

	if err := client.Send(ws.Message{Type: ws.MessageTypeState, Payload: state}); err != nil {
		return
	}

	logger.Info("client connected", "read_only", client.ReadOnly)

	if client.ReadOnly {
		err = editor.Watch(ctx, session, client, client)
	} else {
		err = editor.NewDispatcher(editor.DispatcherConfig{
			Session:  session,
			Client:   client,
			UserID:   userID,
			Viewport: manipulate.DefaultViewport(),
			Logger:   s.logger,
		}).Run(ctx, client)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("connection ended with error", "error", err)
	}

	logger.Info("client disconnected")
}
