// Package vault defines the note file-system abstraction and the on-disk
// layout of a Homebase vault.
package vault

import "time"

// FileInfo is lightweight metadata for a vault file.
type FileInfo struct {
	Path    string    `json:"path"` // relative to the vault root
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mtime"`
}

// Provider is the interface for vault file operations. Every call either
// fully succeeds or fully fails; no partial writes are ever visible.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the
	// vault root), newest first.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating it if needed.
	Write(path string, content []byte) error
	// Create atomically writes content to path and fails with
	// apperr.ErrAlreadyExists when the file is already there.
	Create(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
