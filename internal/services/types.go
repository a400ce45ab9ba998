package services

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"recops/internal/models"
)

// StatusProvider fetches the current status of remote resources of the
// kinds it reports. Describe performs network I/O; its errors are passed to
// the spinner untouched.
type StatusProvider interface {
	Name() string
	Kinds() []models.ResourceKind
	Describe(ctx context.Context, ref models.ResourceRef) (models.Status, error)
}

// Registry routes Describe calls to the provider registered for a kind.
type Registry struct {
	mu     sync.RWMutex
	byKind map[models.ResourceKind]StatusProvider

	unknownMu sync.Mutex
	unknown   map[string]struct{}
}

func NewRegistry(providers ...StatusProvider) *Registry {
	r := &Registry{
		byKind:  make(map[models.ResourceKind]StatusProvider),
		unknown: make(map[string]struct{}),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p for every kind it reports, replacing earlier providers.
func (r *Registry) Register(p StatusProvider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := p.Kinds()
	for _, k := range kinds {
		r.byKind[k] = p
	}
	log.WithFields(log.Fields{"provider": p.Name(), "kinds": kinds}).Debug("status provider registered")
}

// ProviderName returns the name of the provider serving kind, or "" when
// none is registered.
func (r *Registry) ProviderName(kind models.ResourceKind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byKind[kind]; ok {
		return p.Name()
	}
	return ""
}

// Supports reports whether a provider is registered for kind.
func (r *Registry) Supports(kind models.ResourceKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKind[kind]
	return ok
}

// Kinds lists the registered kinds in models.AllKinds order.
func (r *Registry) Kinds() []models.ResourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ResourceKind
	for _, k := range models.AllKinds {
		if _, ok := r.byKind[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Describe fetches one snapshot for ref.
func (r *Registry) Describe(ctx context.Context, ref models.ResourceRef) (models.Status, error) {
	r.mu.RLock()
	p, ok := r.byKind[ref.Kind]
	r.mu.RUnlock()
	if !ok {
		return models.Status{}, fmt.Errorf("%w: no provider configured for %s", models.ErrUnsupportedKind, ref.Kind)
	}
	st, err := p.Describe(ctx, ref)
	if err == nil && !models.IsKnownStatus(st.Raw) {
		r.noteUnknown(p.Name(), ref.Kind, st)
	}
	return st, err
}

// noteUnknown logs the first sighting of a status value outside the
// enumerated set for a kind.
func (r *Registry) noteUnknown(provider string, kind models.ResourceKind, st models.Status) {
	key := string(kind) + "|" + st.Raw
	r.unknownMu.Lock()
	_, seen := r.unknown[key]
	r.unknown[key] = struct{}{}
	r.unknownMu.Unlock()
	if seen {
		return
	}
	log.WithFields(log.Fields{
		"provider": provider,
		"kind":     kind,
		"status":   st.Raw,
		"phase":    st.Phase,
	}).Warn("unrecognised resource status")
}
