package rebrander

import (
	"path/filepath"
	"strings"
)

// ClassifyPath selects a rewrite strategy purely from the path; content
// is never sniffed. Unknown extensions fall back to generic-source.
func ClassifyPath(path string) FileKind {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))

	switch ext {
	case ".xml":
		return FileStructuredMarkup
	case ".gradle", ".properties":
		return FileBuildScript
	case ".kts":
		if strings.HasSuffix(strings.ToLower(base), ".gradle.kts") {
			return FileBuildScript
		}
	}

	return FileGenericSource
}
