// Package panel tracks the admin panels registered by the host
// application. The provisioner scopes super-admin bootstrap to one of
// these panels.
package panel

import (
	"sort"
	"strings"
)

// Registry holds the registered panel identifiers.
type Registry struct {
	ids []string
}

// NewRegistry constructs a Registry from the configured panel ids.
// Blank entries are dropped and the order is normalised.
func NewRegistry(ids []string) *Registry {
	cleaned := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	sort.Strings(cleaned)
	return &Registry{ids: cleaned}
}

// List returns the registered panel ids.
func (r *Registry) List() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// IsRegistered reports whether the panel id is known.
func (r *Registry) IsRegistered(id string) bool {
	for _, known := range r.ids {
		if known == id {
			return true
		}
	}
	return false
}

// Default returns the sole panel when exactly one is registered.
func (r *Registry) Default() (string, bool) {
	if len(r.ids) == 1 {
		return r.ids[0], true
	}
	return "", false
}
