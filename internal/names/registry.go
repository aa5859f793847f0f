package names

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/michelcaradec/evernote-migration/internal/apperr"
)

// Registry tracks the names already assigned within independent scopes and
// resolves collisions by numeric suffixing. One Registry lives for the
// duration of a single run; it is not safe for concurrent use.
type Registry struct {
	scopes      map[string]map[string]struct{}
	maxAttempts int
}

// NewRegistry creates a Registry. maxAttempts caps the suffix search for a
// single candidate before Resolve gives up with ErrNameSpaceExhausted.
func NewRegistry(maxAttempts int) *Registry {
	return &Registry{
		scopes:      make(map[string]map[string]struct{}),
		maxAttempts: maxAttempts,
	}
}

func (r *Registry) scope(name string) map[string]struct{} {
	s, ok := r.scopes[name]
	if !ok {
		s = make(map[string]struct{})
		r.scopes[name] = s
	}
	return s
}

// Reserve marks name as taken in scope without resolving collisions.
// Used to seed a scope with names already present on disk.
func (r *Registry) Reserve(scope, name string) {
	r.scope(scope)[name] = struct{}{}
}

// Taken reports whether name is already assigned in scope.
func (r *Registry) Taken(scope, name string) bool {
	_, ok := r.scope(scope)[name]
	return ok
}

// Resolve assigns a unique name for candidate within scope. An unused
// candidate is assigned as-is; otherwise a numeric suffix (-1, -2, ...) is
// inserted before the extension until a free name is found.
func (r *Registry) Resolve(scope, candidate string) (string, error) {
	taken := r.scope(scope)
	if _, ok := taken[candidate]; !ok {
		taken[candidate] = struct{}{}
		return candidate, nil
	}

	ext := filepath.Ext(candidate)
	base := strings.TrimSuffix(candidate, ext)
	for i := 1; i <= r.maxAttempts; i++ {
		next := fmt.Sprintf("%s-%d%s", base, i, ext)
		if _, ok := taken[next]; !ok {
			taken[next] = struct{}{}
			return next, nil
		}
	}
	return "", fmt.Errorf("names: resolve %q in scope %q: %w", candidate, scope, apperr.ErrNameSpaceExhausted)
}
