package monitor

import "time"

type Status struct {
	Store          bool      `json:"store"`
	Sessions       bool      `json:"sessions"`
	LocalCache     bool      `json:"local_cache"`
	LocalCacheSize int       `json:"local_cache_size"`
	LastCheck      time.Time `json:"last_check"`
}
