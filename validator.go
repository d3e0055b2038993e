package rebrander

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// ConsistencyValidator re-scans the final tree after rewrite and
// relocation. Residual old identifiers are warnings; a service-class
// disagreement between the declaring source and its markup references
// is fatal.
type ConsistencyValidator struct {
	registry  *Registry
	protected []string
}

func NewConsistencyValidator(registry *Registry, protected []string) *ConsistencyValidator {
	return &ConsistencyValidator{
		registry:  registry,
		protected: protected,
	}
}

// ScanResidual reports every literal occurrence of an old identifier
// that remains in the given final contents, excluding protected
// literal spans. Occurrences may be benign (comments, coincidental
// third-party identifiers), so these are warnings for a human to
// confirm, not failures.
func (v *ConsistencyValidator) ScanResidual(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var warnings []string
	for _, path := range paths {
		content := files[path]
		spans := protectedSpans(content, v.protected)
		for _, m := range v.registry.Mappings() {
			count := countUnprotected(content, m.Old, spans)
			if count > 0 {
				warnings = append(warnings, fmt.Sprintf("%s: %d residual occurrence(s) of %s %q", path, count, m.Kind, m.Old))
			}
		}
	}
	return warnings
}

// CheckServiceReferences verifies the service-class rename is
// consistent: markup must not reference the old name, and any markup
// reference to the new name must be backed by a source file that
// declares it.
func (v *ConsistencyValidator) CheckServiceReferences(files map[string][]byte) error {
	svc, ok := v.registry.Lookup(KindServiceClass)
	if !ok {
		return nil
	}

	var declaresNew, declaresOld, markupOld, markupNew []string

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		content := files[path]
		switch ClassifyPath(path) {
		case FileStructuredMarkup:
			if hasBoundedToken(content, svc.Old, FileStructuredMarkup) {
				markupOld = append(markupOld, path)
			}
			if hasBoundedToken(content, svc.New, FileStructuredMarkup) {
				markupNew = append(markupNew, path)
			}
		default:
			if hasBoundedToken(content, "class "+svc.New, FileGenericSource) {
				declaresNew = append(declaresNew, path)
			}
			if hasBoundedToken(content, "class "+svc.Old, FileGenericSource) {
				declaresOld = append(declaresOld, path)
			}
		}
	}

	if len(markupOld) == 0 && len(markupNew) == 0 {
		return nil
	}
	if len(markupOld) > 0 {
		return fmt.Errorf("%w: markup still references %q in %s",
			ErrInconsistentServiceReference, svc.Old, strings.Join(markupOld, ", "))
	}
	if len(declaresNew) == 0 {
		return fmt.Errorf("%w: markup references %q but no source file declares it",
			ErrInconsistentServiceReference, svc.New)
	}
	if len(declaresOld) > 0 {
		return fmt.Errorf("%w: %s still declares %q while markup references %q",
			ErrInconsistentServiceReference, strings.Join(declaresOld, ", "), svc.Old, svc.New)
	}
	return nil
}

func countUnprotected(content []byte, needle string, spans [][2]int) int {
	count := 0
	start := 0
	for {
		idx := bytes.Index(content[start:], []byte(needle))
		if idx == -1 {
			break
		}
		abs := start + idx
		if !overlapsSpan(spans, abs, abs+len(needle)) {
			count++
		}
		start = abs + 1
	}
	return count
}

func hasBoundedToken(content []byte, token string, kind FileKind) bool {
	start := 0
	for {
		idx := bytes.Index(content[start:], []byte(token))
		if idx == -1 {
			return false
		}
		abs := start + idx
		if boundaryOK(content, abs, abs+len(token), kind) {
			return true
		}
		start = abs + 1
	}
}
