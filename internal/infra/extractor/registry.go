package extractor

import (
	"fmt"
	"sync"

	"newslook/internal/domain/entity"
)

// Registry maps a entity.Source to the Extractor that serves it. The
// Manager (C6) looks extractors up here rather than switching on source
// name itself, per the "small interface, per-source implementations
// selected from a registry keyed by source name" design.
type Registry struct {
	mu         sync.RWMutex
	extractors map[entity.Source]Extractor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[entity.Source]Extractor)}
}

// Register associates src with ext, replacing any prior registration.
func (r *Registry) Register(src entity.Source, ext Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[src] = ext
}

// Get returns the Extractor registered for src.
func (r *Registry) Get(src entity.Source) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extractors[src]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for source %q", src)
	}
	return ext, nil
}

// Sources returns every source currently registered.
func (r *Registry) Sources() []entity.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Source, 0, len(r.extractors))
	for src := range r.extractors {
		out = append(out, src)
	}
	return out
}

// BuildFromConfigs constructs a Registry with one DeclarativeExtractor per
// entry in configs, wired to a shared fetcher and ad-filter sink.
func BuildFromConfigs(configs []entity.SourceConfig, fetcher Fetcher, adSink AdFilterSink) *Registry {
	reg := NewRegistry()
	for _, cfg := range configs {
		reg.Register(cfg.Source, New(cfg, fetcher, adSink))
	}
	return reg
}
