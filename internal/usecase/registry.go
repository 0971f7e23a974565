package usecase

import (
	"maps"
	"strings"
	"sync"

	"github.com/clothsearch/backend/internal/domain"
)

// SiteRegistry maps site ids (and aliases) to adapters. Lookups ignore
// case; a site keeps the id its adapter reports.
type SiteRegistry struct {
	mu       sync.RWMutex
	adapters map[string]domain.SiteAdapter // keyed by canonical name
	ids      map[string]domain.SiteID      // canonical name -> site id
	aliases  map[string]domain.SiteID
	order    []domain.SiteID
}

// NewSiteRegistry creates an empty registry
func NewSiteRegistry() *SiteRegistry {
	return &SiteRegistry{
		adapters: make(map[string]domain.SiteAdapter),
		ids:      make(map[string]domain.SiteID),
		aliases:  make(map[string]domain.SiteID),
	}
}

// Register adds or replaces an adapter under its name
func (r *SiteRegistry) Register(adapter domain.SiteAdapter, aliases ...string) {
	if r == nil || adapter == nil {
		return
	}
	key := canonicalSiteName(adapter.Name())
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.ids[key]
	if !exists {
		id = domain.SiteID(strings.TrimSpace(adapter.Name()))
		r.ids[key] = id
		r.order = append(r.order, id)
	}
	r.adapters[key] = adapter
	for _, alias := range aliases {
		if a := canonicalSiteName(alias); a != "" && a != key {
			r.aliases[a] = id
		}
	}
}

// Get returns the adapter for a site id or alias
func (r *SiteRegistry) Get(name string) (domain.SiteAdapter, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.lookup(name)
	if !ok {
		return nil, false
	}
	return r.adapters[canonicalSiteName(string(id))], true
}

// Resolve turns a requested site list into registered ids.
// Unknown names are ignored, aliases collapse onto their target, duplicates
// are dropped and request order is kept. An empty request selects every site.
func (r *SiteRegistry) Resolve(requested []string) []domain.SiteID {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(requested) == 0 {
		return append([]domain.SiteID(nil), r.order...)
	}

	seen := make(map[domain.SiteID]bool, len(requested))
	out := make([]domain.SiteID, 0, len(requested))
	for _, name := range requested {
		id, ok := r.lookup(name)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Names returns registered site ids in registration order
func (r *SiteRegistry) Names() []domain.SiteID {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SiteID(nil), r.order...)
}

// Aliases returns a copy of the alias -> site id table
func (r *SiteRegistry) Aliases() map[string]domain.SiteID {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.aliases)
}

// lookup must be called with r.mu held
func (r *SiteRegistry) lookup(name string) (domain.SiteID, bool) {
	key := canonicalSiteName(name)
	if key == "" {
		return "", false
	}
	if id, ok := r.ids[key]; ok {
		return id, true
	}
	if id, ok := r.aliases[key]; ok {
		return id, true
	}
	return "", false
}

func canonicalSiteName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
