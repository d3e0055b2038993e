package rebrander

import (
	"bytes"
	"regexp"
	"sort"
)

// Rewriter performs longest-match-first, boundary-aware substitution of
// the registered identifiers. It is pure: callers commit content.
type Rewriter struct {
	registry  *Registry
	protected []string
}

func NewRewriter(registry *Registry, protected []string) *Rewriter {
	return &Rewriter{
		registry:  registry,
		protected: protected,
	}
}

// Rewrite scans content left to right. At each position the longest
// matching old value wins and the scan advances past the whole matched
// span, so no two mappings can partially overlap-replace the same text.
// Matches inside protected literal spans are skipped.
func (w *Rewriter) Rewrite(content []byte, kind FileKind) RewriteResult {
	spans := protectedSpans(content, w.protected)
	counts := make(map[MappingKind]int)

	var out bytes.Buffer
	out.Grow(len(content))

	changed := false
	i := 0
	for i < len(content) {
		mapping, ok := w.matchAt(content, i, kind, spans)
		if !ok {
			out.WriteByte(content[i])
			i++
			continue
		}
		out.WriteString(mapping.New)
		counts[mapping.Kind]++
		changed = true
		i += len(mapping.Old)
	}

	if !changed {
		return RewriteResult{Content: content, Counts: counts}
	}
	return RewriteResult{Content: out.Bytes(), Changed: true, Counts: counts}
}

func (w *Rewriter) matchAt(content []byte, pos int, kind FileKind, spans [][2]int) (Mapping, bool) {
	for _, m := range w.registry.Mappings() {
		end := pos + len(m.Old)
		if end > len(content) {
			continue
		}
		if !bytes.Equal(content[pos:end], []byte(m.Old)) {
			continue
		}
		if !boundaryOK(content, pos, end, kind) {
			continue
		}
		if overlapsSpan(spans, pos, end) {
			continue
		}
		return m, true
	}
	return Mapping{}, false
}

// boundaryOK implements the per-kind boundary rule: generic source and
// build scripts accept a match only when the adjacent characters are not
// identifier characters; structured markup requires the adjacent
// characters to be value delimiters.
func boundaryOK(content []byte, start, end int, kind FileKind) bool {
	var prev, next byte
	hasPrev := start > 0
	hasNext := end < len(content)
	if hasPrev {
		prev = content[start-1]
	}
	if hasNext {
		next = content[end]
	}

	if kind == FileStructuredMarkup {
		return (!hasPrev || isMarkupDelimiter(prev)) && (!hasNext || isMarkupDelimiter(next))
	}
	return (!hasPrev || !isIdentByte(prev)) && (!hasNext || !isIdentByte(next))
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func isMarkupDelimiter(b byte) bool {
	switch b {
	case '"', '\'', '<', '>', '.', '/', ':', ';', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// protectedSpans indexes every occurrence of every protected literal so
// the scan can refuse matches that would corrupt them.
func protectedSpans(content []byte, protected []string) [][2]int {
	var spans [][2]int
	for _, lit := range protected {
		if lit == "" {
			continue
		}
		needle := []byte(lit)
		start := 0
		for {
			idx := bytes.Index(content[start:], needle)
			if idx == -1 {
				break
			}
			abs := start + idx
			spans = append(spans, [2]int{abs, abs + len(needle)})
			start = abs + 1
		}
	}
	return spans
}

func overlapsSpan(spans [][2]int, start, end int) bool {
	for _, span := range spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

// RewriteResources forces the value of named <string> resources in
// structured-markup content, regardless of the old value. Override
// names are applied in sorted order so output is deterministic.
func RewriteResources(content []byte, overrides map[string]string) ([]byte, bool) {
	if len(overrides) == 0 {
		return content, false
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := false
	for _, name := range names {
		value := overrides[name]
		re := regexp.MustCompile(`(?s)(<string\s+name="` + regexp.QuoteMeta(name) + `">).*?(</string>)`)
		replaced := re.ReplaceAllFunc(content, func(match []byte) []byte {
			sub := re.FindSubmatch(match)
			var out bytes.Buffer
			out.Write(sub[1])
			out.WriteString(value)
			out.Write(sub[2])
			return out.Bytes()
		})
		if !bytes.Equal(replaced, content) {
			changed = true
			content = replaced
		}
	}
	return content, changed
}
