package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"NewsPipeline/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	Limit     int
	TodayOnly bool
	Now       time.Time
}

// Source captures a single named content origin (marketingtechnews, a feed, etc.).
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.Candidate, error)
}

// Registry keeps a mapping from source names to their implementations.
// Names are matched case-insensitively.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[normalizeName(source.Name())] = source
}

// Sources lists registered source names in lexical order.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns a source by name or an error naming the known sources.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[normalizeName(name)]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("%w: %q is not registered, available: %s",
		domain.ErrUnknownSource, name, strings.Join(r.Sources(), ", "))
}

// Run resolves the named source and fetches up to limit candidates.
func (r *Registry) Run(ctx context.Context, name string, req Request) ([]domain.Candidate, error) {
	source, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}
	return source.Fetch(ctx, req)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
