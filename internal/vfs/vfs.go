// Copyright 2024 SwapFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vfs defines the filesystem contract shared by the in-memory and
// disk backends. Callers hold an FS and never a concrete backend, so a test
// double swaps in for the real filesystem without code change.
//
// Both backends must report the same error kind (internal/common sentinels,
// matched with errors.Is) for the same logical condition, and the same data
// for the same sequence of operations. That parity is the point of the
// package: assertions written against the in-memory backend predict disk
// behavior.
//
// Every operation takes a context and yields to the scheduler once at entry
// before touching shared state. A context cancelled before that point aborts
// the operation with no effects; past it, each operation applies its
// mutation as a single atomic step. Multi-step operations (CreateDirAll,
// CopyAll-style composites) are explicitly not transactional.
package vfs

import "context"

// FS is the capability contract implemented by both backends.
type FS interface {
	// CreateDir creates a single directory. The parent must already exist.
	// Fails with ErrExists if the path exists, ErrNotFound if the parent is
	// missing, ErrNotDir if a parent component is a file.
	CreateDir(ctx context.Context, path string) error

	// CreateDirAll creates the directory and every missing ancestor.
	// Idempotent when the full path already exists as a directory. Not
	// atomic: ancestors created before a failure remain.
	CreateDirAll(ctx context.Context, path string) error

	// RemoveDir removes an empty directory. Fails with ErrNotEmpty if the
	// directory has children, ErrNotDir if the path is a file.
	RemoveDir(ctx context.Context, path string) error

	// RemoveDirAll removes the subtree rooted at path. Content of files
	// still held open survives until the last handle closes. Fails with
	// ErrNotFound if the path does not exist.
	RemoveDirAll(ctx context.Context, path string) error

	// RemoveFile unlinks a file or symlink. Fails with ErrIsDir on a
	// directory and ErrNotFound on a missing path. A file held open stays
	// readable through its handles until the last one closes.
	RemoveFile(ctx context.Context, path string) error

	// WriteFile creates or truncates path and writes data in one call.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ReadFile returns the whole content of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// ReadFileString returns the file content as a string, failing with
	// ErrInvalidData if the bytes are not valid UTF-8.
	ReadFileString(ctx context.Context, path string) (string, error)

	// OpenFile opens path for streaming access per opts.
	OpenFile(ctx context.Context, path string, opts OpenOptions) (File, error)

	// Rename atomically moves oldPath to newPath. Overwrite compatibility
	// follows the native rename table: file over file succeeds, directory
	// over empty directory succeeds, directory over non-empty directory
	// fails with ErrNotEmpty, file over directory with ErrIsDir, directory
	// over file with ErrNotDir. Renaming a directory into its own subtree
	// fails with ErrInvalid and leaves the tree unchanged.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Copy duplicates the file at src to dst (create or overwrite),
	// returning the number of bytes copied.
	Copy(ctx context.Context, src, dst string) (int64, error)

	// Stat returns metadata for the entry at path, following symlinks.
	Stat(ctx context.Context, path string) (Metadata, error)

	// Lstat is Stat without following a final symlink component.
	Lstat(ctx context.Context, path string) (Metadata, error)

	// Symlink creates a symbolic link at link pointing to target. The
	// target is not required to exist.
	Symlink(ctx context.Context, target, link string) error

	// Readlink returns the target of the symlink at path, failing with
	// ErrInvalid if the entry is not a symlink.
	Readlink(ctx context.Context, path string) (string, error)

	// Exists reports whether path resolves to an existing entry, following
	// symlinks. A dangling symlink reports false.
	Exists(ctx context.Context, path string) (bool, error)

	// Canonicalize resolves ".", "..", and symlinks to the normalized
	// rooted path of an existing entry.
	Canonicalize(ctx context.Context, path string) (string, error)

	// ReadDir returns a lazy iterator over the children of path. The
	// listing is a snapshot taken at call time; later modifications are
	// not reflected and the iterator is not restartable.
	ReadDir(ctx context.Context, path string) (DirIter, error)
}

// File is an open handle: a cursor over shared file content. Handles keep
// the content alive even after the file is unlinked from the tree.
type File interface {
	// Read copies up to len(p) bytes from the cursor position, advancing
	// the cursor. Returns io.EOF (with n == 0) at end-of-content.
	Read(ctx context.Context, p []byte) (int, error)

	// Write writes p at the cursor position, extending the content if the
	// cursor is past the current end. A gap left by a prior seek is filled
	// with zero bytes.
	Write(ctx context.Context, p []byte) (int, error)

	// Seek repositions the cursor relative to start, current position, or
	// end. A negative resulting position fails with ErrInvalid.
	Seek(ctx context.Context, offset int64, whence int) (int64, error)

	// Truncate resizes the content to size, zero-filling when growing.
	Truncate(ctx context.Context, size int64) error

	// Stat returns metadata for the open file, valid even after unlink.
	Stat(ctx context.Context) (Metadata, error)

	// Close releases the handle. Content of an unlinked file is freed when
	// its last handle closes. A second Close fails with ErrClosed.
	Close() error
}

// DirIter iterates a directory snapshot. Next returns io.EOF after the
// final entry.
type DirIter interface {
	Next(ctx context.Context) (*DirEntry, error)
}
