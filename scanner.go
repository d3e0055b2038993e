package rebrander

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// EnumerateFiles returns the project-relative paths of every in-scope
// file under root, in lexical walk order. An explicit file set in the
// config takes priority over extension-based enumeration.
func EnumerateFiles(ctx context.Context, root string, config *Config) ([]string, error) {
	if len(config.Files) > 0 {
		var files []string
		for _, path := range config.Files {
			clean := filepath.Clean(path)
			if filepath.IsAbs(clean) || strings.Contains(clean, "..") {
				return nil, fmt.Errorf("in-scope path must be relative to root and cannot contain '..': %s", path)
			}
			files = append(files, clean)
		}
		return files, nil
	}

	extSet := make(map[string]bool, len(config.IncludeExts))
	for _, ext := range config.IncludeExts {
		extSet[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		relPath, _ := filepath.Rel(root, path)

		for _, exclude := range config.ExcludeDirs {
			if relPath == exclude || strings.HasPrefix(relPath, exclude+string(filepath.Separator)) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
