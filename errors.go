package rebrander

import "errors"

var (
	// ErrInvalidMapping means the mapping set is malformed or ambiguous.
	// Raised pre-flight, before any file is touched.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrRelocationSourceMissing means the old package path does not
	// exist. Rewritten files stay in place; a fixed retry can proceed
	// straight to relocation.
	ErrRelocationSourceMissing = errors.New("relocation source missing")

	// ErrRelocationConflict means the destination path is already
	// populated and force was not set.
	ErrRelocationConflict = errors.New("relocation conflict")

	// ErrInconsistentServiceReference means the declaring source file
	// and the markup that references the service class disagree after
	// rewrite. The move has already happened when this is raised.
	ErrInconsistentServiceReference = errors.New("inconsistent service reference")
)
