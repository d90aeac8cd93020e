package tree

import (
	"context"
	"time"
)

// AutoSave runs the periodic background save until ctx is cancelled. Save is
// idempotent: the writer always carries the full current node list, so
// overlapping saves are last-writer-wins on the cache key.
func (m *Manager) AutoSave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Save(ctx); err != nil {
				m.logger.Warn("autosave failed", "error", err)
			}
		}
	}
}
