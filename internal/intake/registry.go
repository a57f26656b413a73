package intake

import (
	"sort"
	"strings"
	"sync"

	"careplan-service/pkg/apperror"
	"careplan-service/pkg/validator"
)

// Constructor builds a fresh adapter bound to the shared validator.
type Constructor func(v *validator.CustomValidator) Adapter

// Registry maps case-insensitive source ids to adapter constructors.
type Registry struct {
	mu        sync.RWMutex
	validator *validator.CustomValidator
	adapters  map[string]Constructor
}

func NewRegistry(v *validator.CustomValidator) *Registry {
	return &Registry{
		validator: v,
		adapters:  make(map[string]Constructor),
	}
}

// NewDefaultRegistry registers every built-in source and its aliases.
func NewDefaultRegistry(v *validator.CustomValidator) *Registry {
	r := NewRegistry(v)
	r.Register(SourceWebForm, NewWebFormAdapter)
	r.Register(SourceMedCenter, NewMedCenterAdapter)
	r.Register(SourceMedCenterAlias, NewMedCenterAdapter)
	r.Register(SourcePharmaCorp, NewPharmaCorpAdapter)
	r.Register(SourcePharmaCorpAlias, NewPharmaCorpAdapter)
	return r
}

func (r *Registry) Register(source string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[strings.ToLower(strings.TrimSpace(source))] = ctor
}

// Get returns a new adapter for source or an UNKNOWN_SOURCE error.
func (r *Registry) Get(source string) (Adapter, error) {
	r.mu.RLock()
	ctor, ok := r.adapters[strings.ToLower(strings.TrimSpace(source))]
	r.mu.RUnlock()

	if !ok {
		known := r.Known()
		return nil, apperror.Config(
			apperror.CodeUnknownSource,
			"Unknown intake source: "+source+". Known: "+strings.Join(known, ", "),
			map[string]interface{}{"source": source, "known": known},
		)
	}
	return ctor(r.validator), nil
}

// Known returns the registered source ids, sorted.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	known := make([]string, 0, len(r.adapters))
	for source := range r.adapters {
		known = append(known, source)
	}
	sort.Strings(known)
	return known
}
