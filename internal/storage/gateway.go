package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/canvas"
)

// DefaultSaveTimeout bounds a single save or load when none is configured.
const DefaultSaveTimeout = 10 * time.Second

// PersistenceError reports a failed load or save. The local document is
// never modified when one is returned.
type PersistenceError struct {
	Op       string // "save", "load" or "versions"
	DesignID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s design %s: %v", e.Op, e.DesignID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SaveResult is delivered to the SaveAsync callback.
type SaveResult struct {
	DesignID  string
	VersionID string
	Err       error
}

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Store Store
	// Checker enforces per-design permissions. Nil allows everything.
	Checker *acl.Checker
	Timeout time.Duration
	Logger  *slog.Logger
}

// Gateway is the editor's only path to persistence. It checks permissions,
// applies timeouts and turns every failure into a *PersistenceError.
type Gateway struct {
	store   Store
	checker *acl.Checker
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewGateway creates a gateway over cfg.Store.
func NewGateway(cfg GatewayConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		store:   cfg.Store,
		checker: cfg.Checker,
		timeout: timeout,
		logger:  logger,
	}
}

// Store returns the underlying store.
func (g *Gateway) Store() Store {
	return g.store
}

func (g *Gateway) authorize(designID, userID string, action acl.Action) error {
	if g.checker == nil {
		return nil
	}

	return g.checker.RequirePermission(designID, userID, action)
}

// Save stores rec as the newest version of the design and returns the
// version id.
func (g *Gateway) Save(ctx context.Context, designID, userID string, rec canvas.Record) (string, error) {
	if err := g.authorize(designID, userID, acl.ActionWrite); err != nil {
		return "", &PersistenceError{Op: "save", DesignID: designID, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	id, err := g.store.SaveRecord(ctx, designID, rec)
	if err != nil {
		return "", &PersistenceError{Op: "save", DesignID: designID, Err: err}
	}

	g.logger.Debug("design saved", "design_id", designID, "version_id", id, "elements", len(rec.Elements))

	return id, nil
}

// SaveAsync runs Save on its own goroutine and reports through done, which
// may be nil. Cancelling ctx after the call does not abort the save; only
// the gateway timeout does.
func (g *Gateway) SaveAsync(ctx context.Context, designID, userID string, rec canvas.Record, done func(SaveResult)) {
	ctx = context.WithoutCancel(ctx)

	g.wg.Add(1)

	go func() {
		defer g.wg.Done()

		id, err := g.Save(ctx, designID, userID, rec)
		if err != nil {
			g.logger.Warn("async save failed", "design_id", designID, "error", err)
		}

		if done != nil {
			done(SaveResult{DesignID: designID, VersionID: id, Err: err})
		}
	}()
}

// Wait blocks until every pending SaveAsync has finished.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

// LoadLatest returns the newest saved record. A design that was never saved
// loads as an empty record without error. Any failure also yields an empty
// record, together with a *PersistenceError describing it.
func (g *Gateway) LoadLatest(ctx context.Context, designID, userID string) (canvas.Record, error) {
	if err := g.authorize(designID, userID, acl.ActionRead); err != nil {
		return canvas.EmptyRecord(), &PersistenceError{Op: "load", DesignID: designID, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	rec, err := g.store.LatestRecord(ctx, designID)
	if errors.Is(err, ErrRecordNotFound) {
		return canvas.EmptyRecord(), nil
	}
	if err != nil {
		g.logger.Warn("load failed, starting empty", "design_id", designID, "error", err)

		return canvas.EmptyRecord(), &PersistenceError{Op: "load", DesignID: designID, Err: err}
	}

	return rec, nil
}

// Versions lists the saved versions of a design, newest first.
func (g *Gateway) Versions(ctx context.Context, designID, userID string) ([]Version, error) {
	if err := g.authorize(designID, userID, acl.ActionRead); err != nil {
		return nil, &PersistenceError{Op: "versions", DesignID: designID, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	versions, err := g.store.ListVersions(ctx, designID)
	if err != nil {
		return nil, &PersistenceError{Op: "versions", DesignID: designID, Err: err}
	}

	return versions, nil
}
