package models

import "time"

// Snapshot is a full serialized copy of a project's metadata and node list,
// as persisted in the local cache.
type Snapshot struct {
	Project   *Project `json:"project"`
	Files     []*Node  `json:"files"`
	Timestamp int64    `json:"timestamp"` // epoch millis
}

// Settings is the editor preferences blob kept in the local cache under a
// fixed key.
type Settings struct {
	Theme    string `json:"theme"`
	AutoSave bool   `json:"autoSave"`
	FontSize int    `json:"fontSize"`
}

// DefaultSettings returns the preferences used when nothing is stored yet.
func DefaultSettings() Settings {
	return Settings{
		Theme:    "light",
		AutoSave: true,
		FontSize: 14,
	}
}

// AutoSaveInterval is the fixed cadence of the background save loop.
const AutoSaveInterval = 30 * time.Second
