package models

import (
	"time"
)

// Kind is the type of a filesystem entry as seen by lstat
type Kind string

const (
	// KindFile is a regular file
	KindFile Kind = "file"
	// KindDir is a directory
	KindDir Kind = "dir"
	// KindSymlink is a symbolic link (never dereferenced)
	KindSymlink Kind = "symlink"
	// KindOther covers devices, sockets and pipes, which are never mirrored
	KindOther Kind = "other"
)

// FileLocation indicates which side(s) an entry exists on
type FileLocation string

const (
	// LocationSource indicates the entry exists in source only
	LocationSource FileLocation = "source"
	// LocationDest indicates the entry exists in destination only
	LocationDest FileLocation = "dest"
	// LocationBoth indicates the entry exists in both locations
	LocationBoth FileLocation = "both"
)

// Mutation is a change applied to the destination tree
type Mutation string

const (
	// MutationCopy copies a new entry or patches a modified file in place
	MutationCopy Mutation = "copy"
	// MutationRemove deletes an entry (recursively for directories)
	MutationRemove Mutation = "remove"
	// MutationRename renames a destination entry to the name found in source
	MutationRename Mutation = "rename"
	// MutationCreate creates an empty destination entry
	MutationCreate Mutation = "create"
)

// Event records one mutation applied to the destination
type Event struct {
	Mutation Mutation

	// Path is the affected entry: the source path for copies,
	// the destination path for removes, renames and creates
	Path string

	// SourceDir and DestDir are the directories the mutation happened between
	SourceDir string
	DestDir   string

	// NewPath is the destination path after a rename
	NewPath string

	// Patched is set when a copy was applied as an in-place patch
	Patched bool

	// Kind of the affected entry
	Kind Kind

	// Bytes is the number of bytes copied or patched
	Bytes int64

	Timestamp time.Time
}
