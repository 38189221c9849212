// Package tree keeps named HTML tree builders that are constructed on first
// use. A builder that is missing, or whose construction failed, reports
// ErrUnavailable every time it is asked for without being rebuilt.
package tree

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// ErrUnavailable is returned for builders that cannot be used in this process.
var ErrUnavailable = errors.New("feature unavailable")

// Builder parses UTF-8 markup into a document tree.
type Builder interface {
	Build(r io.Reader) (*html.Node, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(r io.Reader) (*html.Node, error)

func (f BuilderFunc) Build(r io.Reader) (*html.Node, error) { return f(r) }

// Constructor creates a Builder. It runs at most once per registration.
type Constructor func() (Builder, error)

type entry struct {
	construct Constructor
	once      sync.Once
	builder   Builder
	err       error
}

// Registry maps builder names to lazily constructed builders. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds or replaces the constructor for name. Replacing discards any
// cached outcome of the previous constructor.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &entry{construct: c}
}

// Get returns the builder registered under name, constructing it on first use.
func (r *Registry) Get(name string) (Builder, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok || e.construct == nil {
		return nil, fmt.Errorf("%w: tree builder %q is not installed", ErrUnavailable, name)
	}
	e.once.Do(func() {
		e.builder, e.err = e.construct()
		if e.err == nil && e.builder == nil {
			e.err = errors.New("constructor returned no builder")
		}
		if e.err != nil {
			log.Debug().Err(e.err).Str("builder", name).Msg("tree builder unavailable")
		}
	})
	if e.err != nil {
		return nil, fmt.Errorf("%w: tree builder %q: %v", ErrUnavailable, name, e.err)
	}
	return e.builder, nil
}

// Names lists the registered builder names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Built-in builder names.
const (
	HTML         = "html"
	HTMLNoScript = "html-noscript"
)

// Default returns a registry holding the golang.org/x/net/html builders.
// HTMLNoScript parses with scripting disabled, so <noscript> content becomes
// elements instead of raw text.
func Default() *Registry {
	r := NewRegistry()
	r.Register(HTML, func() (Builder, error) {
		return BuilderFunc(html.Parse), nil
	})
	r.Register(HTMLNoScript, func() (Builder, error) {
		return BuilderFunc(func(rd io.Reader) (*html.Node, error) {
			return html.ParseWithOptions(rd, html.ParseOptionEnableScripting(false))
		}), nil
	})
	return r
}
