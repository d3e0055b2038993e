package rebrander

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Engine drives one rebranding run through its phases: validate
// mappings, rewrite files, relocate the package directory, validate
// consistency, report. A run never shares a tree with another run.
type Engine struct {
	config    *Config
	registry  *Registry
	rewriter  *Rewriter
	relocator Relocator
}

// NewEngine validates the mapping set up front; a malformed set fails
// here, before any file is touched.
func NewEngine(config *Config) (*Engine, error) {
	registry, err := NewRegistry(config.Mappings())
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:   config,
		registry: registry,
		rewriter: NewRewriter(registry, config.ProtectedLiterals),
	}, nil
}

// Run executes the rebrand against the project root. All rewritten
// content is staged in memory before anything is written back, and the
// directory move only starts after every write committed. With dryRun
// set no filesystem state changes; the report describes what would
// happen. The returned report is always non-nil; on a fatal error it is
// partial and carries the phase the run stopped in.
func (e *Engine) Run(ctx context.Context, root string, dryRun bool) (*ChangeReport, error) {
	tracker := NewChangeTracker(e.registry.Mappings())

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return tracker.Report(PhaseRewriting, true), err
	}

	files, err := EnumerateFiles(ctx, absRoot, e.config)
	if err != nil {
		return tracker.Report(PhaseRewriting, true),
			fmt.Errorf("rewrite phase, tree unchanged: %w", err)
	}

	entries, err := e.rewriteAll(ctx, absRoot, files, tracker)
	if err != nil {
		return tracker.Report(PhaseRewriting, true),
			fmt.Errorf("rewrite phase, tree unchanged: %w", err)
	}

	for _, entry := range entries {
		if entry.Changed {
			tracker.AddFile(entry.Path)
		}
	}

	if !dryRun {
		if err := e.commit(absRoot, entries, tracker); err != nil {
			return tracker.Report(PhaseRewriting, true),
				fmt.Errorf("rewrite phase, tree partially rewritten in place: %w", err)
		}
	}

	move, err := e.relocate(absRoot, dryRun)
	if err != nil {
		return tracker.Report(PhaseRelocating, true),
			fmt.Errorf("relocation phase, files rewritten in place but not moved: %w", err)
	}
	if move != nil {
		tracker.SetMove(move)
	}

	final := e.finalContents(absRoot, entries, move)
	validator := NewConsistencyValidator(e.registry, e.config.ProtectedLiterals)
	for _, warning := range validator.ScanResidual(final) {
		tracker.AddWarning(warning)
	}
	if err := validator.CheckServiceReferences(final); err != nil {
		return tracker.Report(PhaseValidating, true),
			fmt.Errorf("validation phase, tree rewritten and moved: %w", err)
	}

	return tracker.Report(PhaseReporting, false), nil
}

// rewriteAll reads and rewrites every in-scope file concurrently,
// holding all results in memory. Each file reads only its own content
// plus the immutable registry, so files are independent. Per-file read
// errors are collected unless the file is load-bearing.
func (e *Engine) rewriteAll(ctx context.Context, root string, files []string, tracker *ChangeTracker) ([]FileEntry, error) {
	entries := make([]FileEntry, len(files))
	errs := make([]error, len(files))

	workers := e.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				entries[i], errs[i] = e.rewriteOne(root, files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		if e.isLoadBearing(files[i]) {
			return nil, fmt.Errorf("load-bearing file %s: %w", files[i], err)
		}
		tracker.AddFileError(fmt.Sprintf("%s: %v", files[i], err))
	}

	return entries, nil
}

func (e *Engine) rewriteOne(root, relPath string) (FileEntry, error) {
	absPath := filepath.Join(root, relPath)
	content, err := os.ReadFile(absPath)
	if err != nil {
		return FileEntry{}, err
	}

	kind := ClassifyPath(relPath)
	sum := sha256.Sum256(content)
	entry := FileEntry{
		Path:    relPath,
		Kind:    kind,
		Hash:    hex.EncodeToString(sum[:]),
		Content: content,
	}

	result := e.rewriter.Rewrite(content, kind)
	rewritten := result.Content
	changed := result.Changed

	if kind == FileStructuredMarkup {
		forced, forcedChanged := RewriteResources(rewritten, e.config.ResourceOverrides)
		if forcedChanged {
			rewritten = forced
			changed = true
		}
	}

	entry.Counts = result.Counts
	if changed {
		entry.Rewritten = rewritten
		entry.Changed = true
	}
	return entry, nil
}

// commit writes every staged rewrite back to its original location.
// Writes use a temp file plus rename so a file is never left half
// written. Per-file write failures are collected unless load-bearing.
func (e *Engine) commit(root string, entries []FileEntry, tracker *ChangeTracker) error {
	for _, entry := range entries {
		if entry.Path == "" || !entry.Changed {
			continue
		}
		absPath := filepath.Join(root, entry.Path)
		if err := writeFileAtomic(absPath, entry.Rewritten); err != nil {
			if e.isLoadBearing(entry.Path) {
				return fmt.Errorf("load-bearing file %s: %w", entry.Path, err)
			}
			tracker.AddFileError(fmt.Sprintf("%s: %v", entry.Path, err))
		}
	}
	return nil
}

// relocate runs the directory move, serialized after all writes. An
// absent old root with a populated new root means a previous run
// already moved the tree, which keeps a full re-run idempotent.
func (e *Engine) relocate(root string, dryRun bool) (*DirectoryMove, error) {
	pkg, ok := e.registry.Lookup(KindPackage)
	if !ok {
		return nil, nil
	}

	sourceRoot := filepath.Join(root, filepath.FromSlash(e.config.SourceRoot))
	oldAbs := filepath.Join(sourceRoot, PackagePath(pkg.Old))
	newAbs := filepath.Join(sourceRoot, PackagePath(pkg.New))

	if _, err := os.Stat(oldAbs); os.IsNotExist(err) {
		if dest, err := os.ReadDir(newAbs); err == nil && len(dest) > 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrRelocationSourceMissing, oldAbs)
	}

	if dryRun {
		subPaths, err := collectSubPaths(oldAbs)
		if err != nil {
			return nil, err
		}
		if len(subPaths) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrRelocationSourceMissing, oldAbs)
		}
		if dest, err := os.ReadDir(newAbs); err == nil && len(dest) > 0 && !e.config.Force {
			return nil, fmt.Errorf("%w: %s already exists and is not empty", ErrRelocationConflict, newAbs)
		}
		return &DirectoryMove{OldRoot: oldAbs, NewRoot: newAbs, SubPaths: subPaths}, nil
	}

	return e.relocator.Relocate(sourceRoot, pkg.Old, pkg.New, e.config.Force)
}

// finalContents maps every staged entry to its post-move path. Staged
// content equals what was committed, so the validator never has to
// re-read the tree.
func (e *Engine) finalContents(root string, entries []FileEntry, move *DirectoryMove) map[string][]byte {
	var oldRel, newRel string
	if move != nil {
		oldRel, _ = filepath.Rel(root, move.OldRoot)
		newRel, _ = filepath.Rel(root, move.NewRoot)
	}

	final := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.Path == "" {
			continue
		}
		content := entry.Content
		if entry.Changed {
			content = entry.Rewritten
		}
		path := entry.Path
		if move != nil {
			prefix := oldRel + string(filepath.Separator)
			if strings.HasPrefix(path, prefix) {
				path = filepath.Join(newRel, strings.TrimPrefix(path, prefix))
			}
		}
		final[path] = content
	}
	return final
}

// isLoadBearing reports whether an I/O failure on the file must abort
// the whole run: the manifest and the service-declaring source are
// both load-bearing, since proceeding without either leaves the tree
// split between old and new identifiers.
func (e *Engine) isLoadBearing(relPath string) bool {
	base := filepath.Base(relPath)
	for _, manifest := range e.config.ManifestFiles {
		if base == manifest {
			return true
		}
	}
	if svc, ok := e.registry.Lookup(KindServiceClass); ok {
		for _, ext := range []string{".kt", ".java"} {
			if base == svc.Old+ext || base == svc.New+ext {
				return true
			}
		}
	}
	return false
}

func writeFileAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFilePermissions)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// FatalKind names the error taxonomy entry for a fatal run error, for
// report consumers that match on kind rather than message.
func FatalKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMapping):
		return "InvalidMapping"
	case errors.Is(err, ErrRelocationSourceMissing):
		return "RelocationSourceMissing"
	case errors.Is(err, ErrRelocationConflict):
		return "RelocationConflict"
	case errors.Is(err, ErrInconsistentServiceReference):
		return "InconsistentServiceReference"
	}
	return ""
}
