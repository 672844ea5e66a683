package models

import "time"

// CachedFile represents a science file present in the local cache.
type CachedFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	CachedAt time.Time `json:"cachedAt"`
}
