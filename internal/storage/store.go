// Package storage persists design records and exposes the persistence
// gateway the editor talks to.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/design-studio/internal/canvas"
)

// Common errors.
var (
	ErrDesignNotFound = errors.New("design not found")
	ErrDesignExists   = errors.New("design already exists")
	ErrRecordNotFound = errors.New("no saved record")
)

// Version describes one saved record of a design.
type Version struct {
	ID        string    `json:"id"`
	DesignID  string    `json:"designId"`
	Elements  int       `json:"elements"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines the interface for persisting design records.
// Implementations can use in-memory storage, databases, or other backends.
type Store interface {
	// CreateDesign registers a new design with the given ID.
	// Returns ErrDesignExists if the design already exists.
	CreateDesign(ctx context.Context, designID string) error

	// DesignExists checks if a design exists.
	DesignExists(ctx context.Context, designID string) (bool, error)

	// SaveRecord stores a new version of the design and returns its id.
	// Returns ErrDesignNotFound if the design doesn't exist.
	SaveRecord(ctx context.Context, designID string, rec canvas.Record) (string, error)

	// LatestRecord returns the most recently saved record.
	// Returns ErrDesignNotFound if the design doesn't exist.
	// Returns ErrRecordNotFound if the design exists but was never saved.
	LatestRecord(ctx context.Context, designID string) (canvas.Record, error)

	// ListVersions returns the saved versions, newest first.
	// Returns ErrDesignNotFound if the design doesn't exist.
	ListVersions(ctx context.Context, designID string) ([]Version, error)

	// DeleteDesign removes a design and every saved version.
	// Returns ErrDesignNotFound if the design doesn't exist.
	DeleteDesign(ctx context.Context, designID string) error
}
