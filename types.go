package rebrander

// MappingKind identifies which identifier a mapping renames.
type MappingKind string

const (
	KindPackage      MappingKind = "package"
	KindAppName      MappingKind = "app_name"
	KindScheme       MappingKind = "scheme"
	KindServiceClass MappingKind = "service_class"
	KindDescription  MappingKind = "description"
)

// FileKind selects the substitution strategy for a file.
type FileKind string

const (
	FileStructuredMarkup FileKind = "structured-markup"
	FileBuildScript      FileKind = "build-script"
	FileGenericSource    FileKind = "generic-source"
)

type Mapping struct {
	Old  string      `json:"old" yaml:"old"`
	New  string      `json:"new" yaml:"new"`
	Kind MappingKind `json:"kind" yaml:"kind"`
}

// FileEntry tracks one in-scope file through a run. Rewritten is nil
// while the content is unchanged; once the rewrite stage completes the
// entry is never mutated again.
type FileEntry struct {
	Path      string              `json:"path"`
	Kind      FileKind            `json:"kind"`
	Hash      string              `json:"hash"`
	Content   []byte              `json:"-"`
	Rewritten []byte              `json:"-"`
	Changed   bool                `json:"changed"`
	Counts    map[MappingKind]int `json:"counts,omitempty"`
}

type DirectoryMove struct {
	OldRoot  string   `json:"old_root"`
	NewRoot  string   `json:"new_root"`
	SubPaths []string `json:"sub_paths"`
}

// ChangeReport is the sole externally visible record of a run besides
// the rewritten tree itself.
type ChangeReport struct {
	Mappings          []Mapping      `json:"mappings"`
	ChangedFiles      []string       `json:"changed_files"`
	ChangedFilesCount int            `json:"changed_files_count"`
	DirectoryMove     *DirectoryMove `json:"directory_move,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
	FileErrors        []string       `json:"file_errors,omitempty"`
	Partial           bool           `json:"partial"`
	Phase             Phase          `json:"phase"`
}

// RewriteResult is the pure output of a single-file rewrite.
type RewriteResult struct {
	Content []byte
	Changed bool
	Counts  map[MappingKind]int
}

// Phase names the state a run is in; an aborted report carries the
// phase it failed in so a human can tell whether the tree is wholly
// old, wholly new, or split.
type Phase string

const (
	PhaseValidatingMappings Phase = "validating-mappings"
	PhaseRewriting          Phase = "rewriting-files"
	PhaseRelocating         Phase = "relocating-directory"
	PhaseValidating         Phase = "validating-consistency"
	PhaseReporting          Phase = "reporting"
)
