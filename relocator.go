package rebrander

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PackagePath maps a dot-separated package name to its on-disk
// relative path.
func PackagePath(pkg string) string {
	return filepath.Join(strings.Split(pkg, ".")...)
}

// Relocator moves the subtree rooted at the old package path to the
// path implied by the new package name. It touches path identity only;
// content has already been rewritten in place before the move runs.
type Relocator struct{}

// Relocate moves sourceRoot/<old package path> to sourceRoot/<new
// package path>, preserving each file's relative path below the package
// root. A populated destination is a conflict unless force is set, in
// which case files are merged into it and the old root is removed.
func (Relocator) Relocate(sourceRoot, oldPkg, newPkg string, force bool) (*DirectoryMove, error) {
	oldAbs := filepath.Join(sourceRoot, PackagePath(oldPkg))
	newAbs := filepath.Join(sourceRoot, PackagePath(newPkg))

	info, err := os.Stat(oldAbs)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRelocationSourceMissing, oldAbs)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRelocationSourceMissing, oldAbs)
	}

	subPaths, err := collectSubPaths(oldAbs)
	if err != nil {
		return nil, err
	}
	if len(subPaths) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrRelocationSourceMissing, oldAbs)
	}

	destExists := false
	if entries, err := os.ReadDir(newAbs); err == nil {
		destExists = true
		if len(entries) > 0 && !force {
			return nil, fmt.Errorf("%w: %s already exists and is not empty", ErrRelocationConflict, newAbs)
		}
	}

	if err := os.MkdirAll(filepath.Dir(newAbs), 0755); err != nil {
		return nil, err
	}

	if !destExists {
		if err := os.Rename(oldAbs, newAbs); err != nil {
			// Rename can fail across filesystems; fall back to a
			// file-by-file merge.
			if err := mergeTree(oldAbs, newAbs, subPaths); err != nil {
				return nil, err
			}
		}
	} else {
		if err := mergeTree(oldAbs, newAbs, subPaths); err != nil {
			return nil, err
		}
	}

	return &DirectoryMove{
		OldRoot:  oldAbs,
		NewRoot:  newAbs,
		SubPaths: subPaths,
	}, nil
}

// collectSubPaths lists every file under root as a relative path, in
// WalkDir's lexical order.
func collectSubPaths(root string) ([]string, error) {
	var subPaths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		subPaths = append(subPaths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subPaths, nil
}

func mergeTree(oldRoot, newRoot string, subPaths []string) error {
	for _, rel := range subPaths {
		src := filepath.Join(oldRoot, rel)
		dst := filepath.Join(newRoot, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, DefaultFilePermissions); err != nil {
			return err
		}
	}
	return os.RemoveAll(oldRoot)
}
