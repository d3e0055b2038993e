package rebrander

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the validated mapping set in longest-old-value-first
// order. Precedence is an explicit slice, not a map, so substitution
// order is a testable artifact.
type Registry struct {
	mappings []Mapping
}

func NewRegistry(mappings []Mapping) (*Registry, error) {
	if len(mappings) == 0 {
		return nil, fmt.Errorf("%w: mapping set is empty", ErrInvalidMapping)
	}

	oldKinds := make(map[string]MappingKind)
	for _, m := range mappings {
		if m.Old == "" {
			return nil, fmt.Errorf("%w: %s mapping has empty old value", ErrInvalidMapping, m.Kind)
		}
		if m.New == "" {
			return nil, fmt.Errorf("%w: %s mapping %q has empty new value", ErrInvalidMapping, m.Kind, m.Old)
		}
		if _, dup := oldKinds[m.Old]; dup {
			return nil, fmt.Errorf("%w: duplicate old value %q", ErrInvalidMapping, m.Old)
		}
		oldKinds[m.Old] = m.Kind

		if m.Kind == KindPackage {
			if err := validatePackageName(m.Old, true); err != nil {
				return nil, err
			}
			if err := validatePackageName(m.New, false); err != nil {
				return nil, err
			}
		}
	}

	// An old value that is a substring of another old value of a
	// different kind makes substitution priority ambiguous.
	for _, a := range mappings {
		for _, b := range mappings {
			if a.Old == b.Old || a.Kind == b.Kind {
				continue
			}
			if strings.Contains(b.Old, a.Old) {
				return nil, fmt.Errorf("%w: %s old value %q is a substring of %s old value %q",
					ErrInvalidMapping, a.Kind, a.Old, b.Kind, b.Old)
			}
		}
	}

	// If any new value equals any old value the rewrite cannot be
	// idempotent: a second run would substitute its own output.
	for _, m := range mappings {
		if kind, exists := oldKinds[m.New]; exists {
			return nil, fmt.Errorf("%w: %s new value %q equals the %s old value",
				ErrInvalidMapping, m.Kind, m.New, kind)
		}
	}

	ordered := make([]Mapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].Old) != len(ordered[j].Old) {
			return len(ordered[i].Old) > len(ordered[j].Old)
		}
		return ordered[i].Old < ordered[j].Old
	})

	return &Registry{mappings: ordered}, nil
}

// Mappings returns the mapping set in substitution order.
func (r *Registry) Mappings() []Mapping {
	return r.mappings
}

// Lookup returns the mapping of the given kind, if configured.
func (r *Registry) Lookup(kind MappingKind) (Mapping, bool) {
	for _, m := range r.mappings {
		if m.Kind == kind {
			return m, true
		}
	}
	return Mapping{}, false
}

func validatePackageName(pkg string, requireMinSegments bool) error {
	segments := strings.Split(pkg, ".")
	if requireMinSegments && len(segments) < 2 {
		return fmt.Errorf("%w: package %q must have at least 2 dot-separated segments", ErrInvalidMapping, pkg)
	}
	for _, seg := range segments {
		if seg == "" {
			return fmt.Errorf("%w: package %q contains an empty segment", ErrInvalidMapping, pkg)
		}
		if strings.ContainsAny(seg, `/\`) {
			return fmt.Errorf("%w: package segment %q contains a path separator", ErrInvalidMapping, seg)
		}
	}
	return nil
}
