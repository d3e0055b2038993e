package rebrander

// ChangeTracker accumulates the per-file change records and the
// directory-move record for one run. It is append-only and produces
// exactly one report.
type ChangeTracker struct {
	mappings   []Mapping
	changed    []string
	seen       map[string]bool
	move       *DirectoryMove
	warnings   []string
	fileErrors []string
}

func NewChangeTracker(mappings []Mapping) *ChangeTracker {
	return &ChangeTracker{
		mappings: mappings,
		seen:     make(map[string]bool),
	}
}

// AddFile records one changed file. Paths are kept in first-seen order
// and deduplicated.
func (t *ChangeTracker) AddFile(path string) {
	if t.seen[path] {
		return
	}
	t.seen[path] = true
	t.changed = append(t.changed, path)
}

func (t *ChangeTracker) SetMove(move *DirectoryMove) {
	t.move = move
}

func (t *ChangeTracker) AddWarning(warning string) {
	t.warnings = append(t.warnings, warning)
}

func (t *ChangeTracker) AddFileError(fileError string) {
	t.fileErrors = append(t.fileErrors, fileError)
}

// Report materializes the change report. A partial report carries the
// phase the run stopped in.
func (t *ChangeTracker) Report(phase Phase, partial bool) *ChangeReport {
	changed := make([]string, len(t.changed))
	copy(changed, t.changed)

	return &ChangeReport{
		Mappings:          t.mappings,
		ChangedFiles:      changed,
		ChangedFilesCount: len(changed),
		DirectoryMove:     t.move,
		Warnings:          t.warnings,
		FileErrors:        t.fileErrors,
		Partial:           partial,
		Phase:             phase,
	}
}
