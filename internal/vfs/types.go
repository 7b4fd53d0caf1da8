package vfs

import "time"

// FileType represents the type of a filesystem entry
type FileType int

const (
	// FileTypeRegularFile is a regular file
	FileTypeRegularFile FileType = iota
	// FileTypeDirectory is a directory
	FileTypeDirectory
	// FileTypeSymlink is a symbolic link
	FileTypeSymlink
)

// String returns a short human-readable name for the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeRegularFile:
		return "file"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Metadata describes a filesystem entry. Ino is a stable identifier for the
// underlying node; ModTime is a synthetic modification marker for the
// in-memory backend and the native mtime for the disk backend.
type Metadata struct {
	Type    FileType
	Size    int64
	ModTime time.Time
	Ino     int64
}

// IsDir returns true if the entry is a directory
func (m Metadata) IsDir() bool {
	return m.Type == FileTypeDirectory
}

// IsFile returns true if the entry is a regular file
func (m Metadata) IsFile() bool {
	return m.Type == FileTypeRegularFile
}

// IsSymlink returns true if the entry is a symbolic link
func (m Metadata) IsSymlink() bool {
	return m.Type == FileTypeSymlink
}

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string
	Type FileType
	Size int64
	Ino  int64
}
