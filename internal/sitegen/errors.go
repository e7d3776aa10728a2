package sitegen

import "errors"

// Sentinel errors for the scan and write phases. Callers match them with errors.Is.
var (
	// ErrDirectoryNotFound means a scan root is missing or is not a directory.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrNoVersionsFound means a scan root holds no V<major>.<minor>.<patch> folder.
	ErrNoVersionsFound = errors.New("no version folders found")
	// ErrArtifactMissing means an expected artifact is absent, empty or unreadable.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrCategoryFileMissing means an optional changelog file is absent or unreadable.
	ErrCategoryFileMissing = errors.New("category file missing")
	// ErrArtifactInfected means the malware scan flagged at least one file.
	ErrArtifactInfected = errors.New("infected artifacts found")
	// ErrSerializationWriteFailure means a generated file could not be written.
	ErrSerializationWriteFailure = errors.New("failed to write generated file")
)
