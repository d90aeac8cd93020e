// Package cache provides the durable on-device store for whole-project
// snapshots, the project index, and editor settings.
package cache

import "cipherstudio/internal/domain/models"

// Store is the Local Cache Store contract consumed by the tree manager.
// Implementations are synchronous and local; failures are reported as
// ordinary errors, never panics.
type Store interface {
	// SaveProject persists a snapshot under the project slug and updates the
	// project index in the same transaction.
	SaveProject(slug string, snap *models.Snapshot) error

	// LoadProject returns the snapshot for slug, or (nil, nil) when the slug
	// has never been saved.
	LoadProject(slug string) (*models.Snapshot, error)

	// DeleteProject removes the snapshot and its index entry.
	DeleteProject(slug string) error

	// ListProjects returns the project index in insertion order.
	ListProjects() ([]*models.Project, error)

	// SaveSettings persists the editor preferences blob.
	SaveSettings(s models.Settings) error

	// LoadSettings returns stored preferences, falling back to defaults when
	// nothing is stored or the stored value is corrupt.
	LoadSettings() models.Settings

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
