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

// Package diskfs implements the vfs.FS contract by delegating 1:1 to the
// host filesystem under a root directory. Native errors are mapped onto
// the shared taxonomy so caller-visible failure shape matches the
// in-memory backend.
package diskfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

// lockFileName is the advisory lock taken on the store root. Two DiskFS
// instances must never share one root; the store is owned by its backend
// instance for its lifetime.
const lockFileName = ".swapfs.lock"

// DiskFS is the on-disk backend, rooted at a directory it owns.
type DiskFS struct {
	root string
	lock *flock.Flock
}

var _ vfs.FS = (*DiskFS)(nil)

// New creates a DiskFS rooted at root, creating the directory if needed
// and acquiring its advisory lock.
func New(root string) (*DiskFS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, common.WrapOp("init", root, mapErr(err))
	}
	lock := flock.New(filepath.Join(abs, lockFileName))
	held, err := lock.TryLock()
	if err != nil {
		return nil, common.WrapOp("init", root, mapErr(err))
	}
	if !held {
		return nil, fmt.Errorf("diskfs: store root %s is already in use", abs)
	}
	log.Debugf("[DiskFS] store opened at %s", abs)
	return &DiskFS{root: abs, lock: lock}, nil
}

// Close releases the store root lock. The on-disk tree is left unchanged.
func (d *DiskFS) Close() error {
	return d.lock.Unlock()
}

// Root returns the absolute root directory of the store.
func (d *DiskFS) Root() string {
	return d.root
}

func (d *DiskFS) String() string {
	return fmt.Sprintf("diskfs(%s)", d.root)
}

// host maps a facade path to a host path under the root. Normalization
// clamps ".." at the store root, mirroring the in-memory resolver, so no
// path escapes the root lexically.
func (d *DiskFS) host(path string) string {
	rel := strings.TrimPrefix(common.NormalizePath(path), "/")
	if rel == "" {
		return d.root
	}
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

// isRoot reports whether path names the store root itself.
func (d *DiskFS) isRoot(path string) bool {
	return common.NormalizePath(path) == "/"
}

// CreateDir implements vfs.FS.
func (d *DiskFS) CreateDir(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if d.isRoot(path) {
		return common.WrapOp("mkdir", path, common.ErrExists)
	}
	return common.WrapOp("mkdir", path, mapErr(os.Mkdir(d.host(path), 0o755)))
}

// CreateDirAll implements vfs.FS.
func (d *DiskFS) CreateDirAll(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	return common.WrapOp("mkdir", path, mapErr(os.MkdirAll(d.host(path), 0o755)))
}

// RemoveDir implements vfs.FS.
func (d *DiskFS) RemoveDir(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if d.isRoot(path) {
		return common.WrapOp("rmdir", path, common.ErrInvalid)
	}
	info, err := os.Lstat(d.host(path))
	if err != nil {
		return common.WrapOp("rmdir", path, mapErr(err))
	}
	if !info.IsDir() {
		return common.WrapOp("rmdir", path, common.ErrNotDir)
	}
	return common.WrapOp("rmdir", path, mapErr(os.Remove(d.host(path))))
}

// RemoveDirAll implements vfs.FS. A missing path is an error: os.RemoveAll
// treats it as a no-op, so existence is checked first to keep the policy
// identical to the in-memory backend.
func (d *DiskFS) RemoveDirAll(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if d.isRoot(path) {
		return common.WrapOp("remove_all", path, common.ErrInvalid)
	}
	if _, err := os.Lstat(d.host(path)); err != nil {
		return common.WrapOp("remove_all", path, mapErr(err))
	}
	return common.WrapOp("remove_all", path, mapErr(os.RemoveAll(d.host(path))))
}

// RemoveFile implements vfs.FS.
func (d *DiskFS) RemoveFile(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if d.isRoot(path) {
		return common.WrapOp("unlink", path, common.ErrIsDir)
	}
	info, err := os.Lstat(d.host(path))
	if err != nil {
		return common.WrapOp("unlink", path, mapErr(err))
	}
	if info.IsDir() {
		return common.WrapOp("unlink", path, common.ErrIsDir)
	}
	return common.WrapOp("unlink", path, mapErr(os.Remove(d.host(path))))
}

// WriteFile implements vfs.FS.
func (d *DiskFS) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	return common.WrapOp("write", path, mapErr(os.WriteFile(d.host(path), data, 0o644)))
}

// ReadFile implements vfs.FS.
func (d *DiskFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.host(path))
	if err != nil {
		return nil, common.WrapOp("read", path, mapErr(err))
	}
	return data, nil
}

// ReadFileString implements vfs.FS.
func (d *DiskFS) ReadFileString(ctx context.Context, path string) (string, error) {
	data, err := d.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", common.WrapOp("read", path, common.ErrInvalidData)
	}
	return string(data), nil
}

// OpenFile implements vfs.FS.
func (d *DiskFS) OpenFile(ctx context.Context, path string, opts vfs.OpenOptions) (vfs.File, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	if !opts.Read && !opts.Writable() {
		return nil, common.WrapOp("open", path, common.ErrInvalid)
	}
	f, err := os.OpenFile(d.host(path), opts.OSFlags(), 0o644)
	if err != nil {
		return nil, common.WrapOp("open", path, mapErr(err))
	}
	// Opening a directory read-only succeeds natively; the facade only
	// hands out file handles.
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, common.WrapOp("open", path, mapErr(err))
	}
	if info.IsDir() {
		f.Close()
		return nil, common.WrapOp("open", path, common.ErrIsDir)
	}
	return &diskFile{f: f, path: path, opts: opts}, nil
}

// Rename implements vfs.FS. The native rename already enforces the
// overwrite table and rejects a destination inside the source subtree
// with EINVAL; mapErr converts both to the shared kinds.
func (d *DiskFS) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if d.isRoot(oldPath) || d.isRoot(newPath) {
		return common.WrapOp("rename", oldPath, common.ErrInvalid)
	}
	return common.WrapOp("rename", oldPath, mapErr(os.Rename(d.host(oldPath), d.host(newPath))))
}

// Copy implements vfs.FS.
func (d *DiskFS) Copy(ctx context.Context, src, dst string) (int64, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	info, err := os.Stat(d.host(src))
	if err != nil {
		return 0, common.WrapOp("copy", src, mapErr(err))
	}
	if info.IsDir() {
		return 0, common.WrapOp("copy", src, common.ErrIsDir)
	}
	from, err := os.Open(d.host(src))
	if err != nil {
		return 0, common.WrapOp("copy", src, mapErr(err))
	}
	defer from.Close()
	to, err := os.OpenFile(d.host(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, common.WrapOp("copy", dst, mapErr(err))
	}
	n, err := io.Copy(to, from)
	if cerr := to.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, common.WrapOp("copy", dst, mapErr(err))
	}
	return n, nil
}

// Stat implements vfs.FS.
func (d *DiskFS) Stat(ctx context.Context, path string) (vfs.Metadata, error) {
	if err := vfs.Yield(ctx); err != nil {
		return vfs.Metadata{}, err
	}
	info, err := os.Stat(d.host(path))
	if err != nil {
		return vfs.Metadata{}, common.WrapOp("stat", path, mapErr(err))
	}
	return metadataFromInfo(info), nil
}

// Lstat implements vfs.FS.
func (d *DiskFS) Lstat(ctx context.Context, path string) (vfs.Metadata, error) {
	if err := vfs.Yield(ctx); err != nil {
		return vfs.Metadata{}, err
	}
	info, err := os.Lstat(d.host(path))
	if err != nil {
		return vfs.Metadata{}, common.WrapOp("lstat", path, mapErr(err))
	}
	return metadataFromInfo(info), nil
}

// Symlink implements vfs.FS. The target is stored verbatim, as in the
// in-memory backend.
func (d *DiskFS) Symlink(ctx context.Context, target, link string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if d.isRoot(link) {
		return common.WrapOp("symlink", link, common.ErrExists)
	}
	return common.WrapOp("symlink", link, mapErr(os.Symlink(target, d.host(link))))
}

// Readlink implements vfs.FS.
func (d *DiskFS) Readlink(ctx context.Context, path string) (string, error) {
	if err := vfs.Yield(ctx); err != nil {
		return "", err
	}
	target, err := os.Readlink(d.host(path))
	if err != nil {
		return "", common.WrapOp("readlink", path, mapErr(err))
	}
	return target, nil
}

// Exists implements vfs.FS.
func (d *DiskFS) Exists(ctx context.Context, path string) (bool, error) {
	if err := vfs.Yield(ctx); err != nil {
		return false, err
	}
	_, err := os.Stat(d.host(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, common.WrapOp("exists", path, mapErr(err))
}

// Canonicalize implements vfs.FS. The result is reported as a rooted
// facade path; a symlink chain escaping the store root is rejected.
func (d *DiskFS) Canonicalize(ctx context.Context, path string) (string, error) {
	if err := vfs.Yield(ctx); err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(d.host(path))
	if err != nil {
		return "", common.WrapOp("canonicalize", path, mapErr(err))
	}
	// The root itself may sit behind a symlink (e.g. /tmp on macOS);
	// resolve it once for a stable prefix comparison.
	rootResolved, err := filepath.EvalSymlinks(d.root)
	if err != nil {
		return "", common.WrapOp("canonicalize", path, mapErr(err))
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", common.WrapOp("canonicalize", path, common.ErrInvalid)
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + filepath.ToSlash(rel), nil
}

// ReadDir implements vfs.FS. os.ReadDir returns the full listing at call
// time; the iterator serves that snapshot. The store lock file is hidden
// from listings of the root.
func (d *DiskFS) ReadDir(ctx context.Context, path string) (vfs.DirIter, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(d.host(path))
	if err != nil {
		return nil, common.WrapOp("readdir", path, mapErr(err))
	}
	hideLock := d.isRoot(path)
	entries := make([]vfs.DirEntry, 0, len(dirents))
	for _, de := range dirents {
		if hideLock && de.Name() == lockFileName {
			continue
		}
		entry := vfs.DirEntry{Name: de.Name()}
		switch {
		case de.IsDir():
			entry.Type = vfs.FileTypeDirectory
		case de.Type()&os.ModeSymlink != 0:
			entry.Type = vfs.FileTypeSymlink
		default:
			entry.Type = vfs.FileTypeRegularFile
		}
		if info, err := de.Info(); err == nil {
			entry.Size = info.Size()
			entry.Ino = inodeOf(info)
		}
		entries = append(entries, entry)
	}
	return &diskDirIter{entries: entries}, nil
}

func metadataFromInfo(info os.FileInfo) vfs.Metadata {
	md := vfs.Metadata{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Ino:     inodeOf(info),
	}
	switch {
	case info.IsDir():
		md.Type = vfs.FileTypeDirectory
		md.Size = 0
	case info.Mode()&os.ModeSymlink != 0:
		md.Type = vfs.FileTypeSymlink
	default:
		md.Type = vfs.FileTypeRegularFile
	}
	return md
}
