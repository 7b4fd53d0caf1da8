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

// Package memfs implements the vfs.FS contract on an in-memory node arena.
// The store lives and dies with its MemFS instance; nothing is shared
// across instances or persisted.
package memfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

// MemFS is the in-memory backend. A single RWMutex over the whole arena is
// the concurrency discipline: mutating operations take the write lock,
// read-only operations share the read lock, and every operation completes
// its work in one critical section after the entry suspension point.
type MemFS struct {
	mu      sync.RWMutex
	arena   *arena
	handles *handleManager
	id      string
}

var _ vfs.FS = (*MemFS)(nil)

// New creates an empty store containing only the root directory.
func New() *MemFS {
	fs := &MemFS{
		arena:   newArena(),
		handles: newHandleManager(),
		id:      uuid.NewString(),
	}
	log.Debugf("[MemFS %s] store created", fs.shortID())
	return fs
}

func (fs *MemFS) String() string {
	return fmt.Sprintf("memfs(%s)", fs.shortID())
}

func (fs *MemFS) shortID() string {
	return fs.id[:8]
}

// OpenHandles reports the number of live handles, for tests and teardown
// diagnostics.
func (fs *MemFS) OpenHandles() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.handles.openCount()
}

// NodeCount reports the number of live nodes including the root.
func (fs *MemFS) NodeCount() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.arena.len()
}

// CreateDir implements vfs.FS.
func (fs *MemFS) CreateDir(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, ok, err := fs.resolveParentLocked(path)
	if err != nil {
		return common.WrapOp("mkdir", path, err)
	}
	if !ok {
		return common.WrapOp("mkdir", path, common.ErrExists)
	}
	if _, exists := parent.children.get(leaf); exists {
		return common.WrapOp("mkdir", path, common.ErrExists)
	}
	child := fs.arena.allocDir(parent.id)
	parent.children.put(leaf, child.id)
	parent.mtime = time.Now()
	return nil
}

// CreateDirAll implements vfs.FS. Ancestors are created one by one;
// directories created before a failure remain.
func (fs *MemFS) CreateDirAll(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	cur := fs.arena.root()
	for _, name := range common.SplitPath(path) {
		childID, err := fs.walkLocked(cur.id, []string{name}, true)
		if err == nil {
			child, found := fs.arena.get(childID)
			if !found || !child.isDir() {
				return common.WrapOp("mkdir", path, common.ErrNotDir)
			}
			cur = child
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return common.WrapOp("mkdir", path, err)
		}
		if _, dangling := cur.children.get(name); dangling {
			// A dangling symlink occupies the name.
			return common.WrapOp("mkdir", path, common.ErrExists)
		}
		child := fs.arena.allocDir(cur.id)
		cur.children.put(name, child.id)
		cur.mtime = time.Now()
		cur = child
	}
	return nil
}

// RemoveDir implements vfs.FS.
func (fs *MemFS) RemoveDir(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, ok, err := fs.resolveParentLocked(path)
	if err != nil {
		return common.WrapOp("rmdir", path, err)
	}
	if !ok {
		return common.WrapOp("rmdir", path, common.ErrInvalid)
	}
	childID, found := parent.children.get(leaf)
	if !found {
		return common.WrapOp("rmdir", path, common.ErrNotFound)
	}
	child, found := fs.arena.get(childID)
	if !found {
		return common.WrapOp("rmdir", path, common.ErrNotFound)
	}
	if !child.isDir() {
		return common.WrapOp("rmdir", path, common.ErrNotDir)
	}
	if child.children.len() > 0 {
		return common.WrapOp("rmdir", path, common.ErrNotEmpty)
	}
	fs.detachLocked(parent, leaf)
	fs.arena.drop(childID)
	return nil
}

// RemoveDirAll implements vfs.FS. A missing path is an error, matching the
// disk backend; see the package tests for the policy assertion.
func (fs *MemFS) RemoveDirAll(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("[MemFS %s] remove_dir_all %q", fs.shortID(), path)
	}

	parent, leaf, ok, err := fs.resolveParentLocked(path)
	if err != nil {
		return common.WrapOp("remove_all", path, err)
	}
	if !ok {
		// Removing the store root is not allowed.
		return common.WrapOp("remove_all", path, common.ErrInvalid)
	}
	childID, found := parent.children.get(leaf)
	if !found {
		return common.WrapOp("remove_all", path, common.ErrNotFound)
	}
	child, found := fs.arena.get(childID)
	if !found {
		return common.WrapOp("remove_all", path, common.ErrNotFound)
	}
	fs.detachLocked(parent, leaf)
	fs.destroyLocked(child)
	return nil
}

// RemoveFile implements vfs.FS.
func (fs *MemFS) RemoveFile(ctx context.Context, path string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, ok, err := fs.resolveParentLocked(path)
	if err != nil {
		return common.WrapOp("unlink", path, err)
	}
	if !ok {
		return common.WrapOp("unlink", path, common.ErrIsDir)
	}
	childID, found := parent.children.get(leaf)
	if !found {
		return common.WrapOp("unlink", path, common.ErrNotFound)
	}
	child, found := fs.arena.get(childID)
	if !found {
		return common.WrapOp("unlink", path, common.ErrNotFound)
	}
	if child.isDir() {
		return common.WrapOp("unlink", path, common.ErrIsDir)
	}
	fs.detachLocked(parent, leaf)
	fs.destroyLocked(child)
	return nil
}

// WriteFile implements vfs.FS: create or truncate, write, close, in one
// critical section.
func (fs *MemFS) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	h, err := fs.openLocked(path, vfs.WriteOnly())
	if err != nil {
		return common.WrapOp("write", path, err)
	}
	h.content.writeAt(data, 0)
	fs.handles.release(h)
	return nil
}

// ReadFile implements vfs.FS.
func (fs *MemFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, err := fs.lookupFileLocked(path)
	if err != nil {
		return nil, common.WrapOp("read", path, err)
	}
	out := make([]byte, n.content.size())
	copy(out, n.content.data)
	return out, nil
}

// ReadFileString implements vfs.FS.
func (fs *MemFS) ReadFileString(ctx context.Context, path string) (string, error) {
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", common.WrapOp("read", path, common.ErrInvalidData)
	}
	return string(data), nil
}

// OpenFile implements vfs.FS.
func (fs *MemFS) OpenFile(ctx context.Context, path string, opts vfs.OpenOptions) (vfs.File, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("[MemFS %s] open %q %+v", fs.shortID(), path, opts)
	}

	h, err := fs.openLocked(path, opts)
	if err != nil {
		return nil, common.WrapOp("open", path, err)
	}
	return &memFile{fs: fs, h: h, path: path}, nil
}

// Rename implements vfs.FS.
func (fs *MemFS) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("[MemFS %s] rename %q -> %q", fs.shortID(), oldPath, newPath)
	}

	srcParent, srcLeaf, ok, err := fs.resolveParentLocked(oldPath)
	if err != nil {
		return common.WrapOp("rename", oldPath, err)
	}
	if !ok {
		return common.WrapOp("rename", oldPath, common.ErrInvalid)
	}
	srcID, found := srcParent.children.get(srcLeaf)
	if !found {
		return common.WrapOp("rename", oldPath, common.ErrNotFound)
	}
	src, found := fs.arena.get(srcID)
	if !found {
		return common.WrapOp("rename", oldPath, common.ErrNotFound)
	}

	dstParent, dstLeaf, ok, err := fs.resolveParentLocked(newPath)
	if err != nil {
		return common.WrapOp("rename", newPath, err)
	}
	if !ok {
		return common.WrapOp("rename", newPath, common.ErrInvalid)
	}

	// Moving a directory into its own subtree would detach it into a
	// cycle. Checked before anything is touched, so a rejected rename
	// leaves the tree unchanged.
	for id := dstParent.id; ; {
		if id == srcID {
			return common.WrapOp("rename", newPath, common.ErrInvalid)
		}
		if id == RootID {
			break
		}
		n, found := fs.arena.get(id)
		if !found {
			return common.WrapOp("rename", newPath, common.ErrNotFound)
		}
		id = n.parent
	}

	if dstID, exists := dstParent.children.get(dstLeaf); exists {
		if dstID == srcID {
			// Renaming a file onto itself is a no-op.
			return nil
		}
		dst, found := fs.arena.get(dstID)
		if !found {
			return common.WrapOp("rename", newPath, common.ErrNotFound)
		}
		// Native rename overwrite table.
		switch {
		case src.isDir() && !dst.isDir():
			return common.WrapOp("rename", newPath, common.ErrNotDir)
		case src.isDir() && dst.children.len() > 0:
			return common.WrapOp("rename", newPath, common.ErrNotEmpty)
		case !src.isDir() && dst.isDir():
			return common.WrapOp("rename", newPath, common.ErrIsDir)
		}
		fs.detachLocked(dstParent, dstLeaf)
		fs.destroyLocked(dst)
	}

	fs.detachLocked(srcParent, srcLeaf)
	dstParent.children.put(dstLeaf, srcID)
	dstParent.mtime = time.Now()
	src.parent = dstParent.id
	src.mtime = time.Now()
	return nil
}

// Copy implements vfs.FS.
func (fs *MemFS) Copy(ctx context.Context, src, dst string) (int64, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	from, err := fs.lookupFileLocked(src)
	if err != nil {
		return 0, common.WrapOp("copy", src, err)
	}
	h, err := fs.openLocked(dst, vfs.WriteOnly())
	if err != nil {
		return 0, common.WrapOp("copy", dst, err)
	}
	n := h.content.writeAt(from.content.data, 0)
	fs.handles.release(h)
	return int64(n), nil
}

// Stat implements vfs.FS.
func (fs *MemFS) Stat(ctx context.Context, path string) (vfs.Metadata, error) {
	if err := vfs.Yield(ctx); err != nil {
		return vfs.Metadata{}, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	id, err := fs.resolveLocked(path, true)
	if err != nil {
		return vfs.Metadata{}, common.WrapOp("stat", path, err)
	}
	return fs.metadataLocked(id, path)
}

// Lstat implements vfs.FS.
func (fs *MemFS) Lstat(ctx context.Context, path string) (vfs.Metadata, error) {
	if err := vfs.Yield(ctx); err != nil {
		return vfs.Metadata{}, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	id, err := fs.resolveLocked(path, false)
	if err != nil {
		return vfs.Metadata{}, common.WrapOp("lstat", path, err)
	}
	return fs.metadataLocked(id, path)
}

// Symlink implements vfs.FS. The target is stored verbatim and resolved
// lazily; it does not have to exist.
func (fs *MemFS) Symlink(ctx context.Context, target, link string) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, ok, err := fs.resolveParentLocked(link)
	if err != nil {
		return common.WrapOp("symlink", link, err)
	}
	if !ok {
		return common.WrapOp("symlink", link, common.ErrExists)
	}
	if _, exists := parent.children.get(leaf); exists {
		return common.WrapOp("symlink", link, common.ErrExists)
	}
	child := fs.arena.allocSymlink(parent.id, target)
	parent.children.put(leaf, child.id)
	parent.mtime = time.Now()
	return nil
}

// Readlink implements vfs.FS.
func (fs *MemFS) Readlink(ctx context.Context, path string) (string, error) {
	if err := vfs.Yield(ctx); err != nil {
		return "", err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	id, err := fs.resolveLocked(path, false)
	if err != nil {
		return "", common.WrapOp("readlink", path, err)
	}
	n, found := fs.arena.get(id)
	if !found {
		return "", common.WrapOp("readlink", path, common.ErrNotFound)
	}
	if !n.isSymlink() {
		return "", common.WrapOp("readlink", path, common.ErrInvalid)
	}
	return n.target, nil
}

// Exists implements vfs.FS.
func (fs *MemFS) Exists(ctx context.Context, path string) (bool, error) {
	if err := vfs.Yield(ctx); err != nil {
		return false, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := fs.resolveLocked(path, true)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return false, common.WrapOp("exists", path, err)
}

// Canonicalize implements vfs.FS.
func (fs *MemFS) Canonicalize(ctx context.Context, path string) (string, error) {
	if err := vfs.Yield(ctx); err != nil {
		return "", err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	id, err := fs.resolveLocked(path, true)
	if err != nil {
		return "", common.WrapOp("canonicalize", path, err)
	}
	out, err := fs.pathOfLocked(id)
	if err != nil {
		return "", common.WrapOp("canonicalize", path, err)
	}
	return out, nil
}

// ReadDir implements vfs.FS. The listing is snapshotted under the read
// lock; iteration never observes later mutations.
func (fs *MemFS) ReadDir(ctx context.Context, path string) (vfs.DirIter, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	id, err := fs.resolveLocked(path, true)
	if err != nil {
		return nil, common.WrapOp("readdir", path, err)
	}
	dir, found := fs.arena.get(id)
	if !found {
		return nil, common.WrapOp("readdir", path, common.ErrNotFound)
	}
	if !dir.isDir() {
		return nil, common.WrapOp("readdir", path, common.ErrNotDir)
	}

	names := dir.children.list()
	entries := make([]vfs.DirEntry, 0, len(names))
	for _, name := range names {
		childID, ok := dir.children.get(name)
		if !ok {
			continue
		}
		child, ok := fs.arena.get(childID)
		if !ok {
			continue
		}
		entry := vfs.DirEntry{Name: name, Type: child.fileType, Ino: int64(childID)}
		if child.isFile() {
			entry.Size = child.content.size()
		}
		entries = append(entries, entry)
	}
	return &memDirIter{entries: entries}, nil
}

// --- Locked helpers ---

// openLocked resolves or creates the open target and allocates a handle on
// its content. Caller holds the write lock and wraps errors.
func (fs *MemFS) openLocked(path string, opts vfs.OpenOptions) (*openHandle, error) {
	if !opts.Read && !opts.Writable() {
		return nil, common.ErrInvalid
	}

	parent, leaf, ok, err := fs.resolveParentLocked(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrIsDir
	}

	var c *content
	id, err := fs.walkLocked(parent.id, []string{leaf}, true)
	switch {
	case err == nil:
		if opts.CreateNew {
			return nil, common.ErrExists
		}
		n, found := fs.arena.get(id)
		if !found {
			return nil, common.ErrNotFound
		}
		if n.isDir() {
			return nil, common.ErrIsDir
		}
		c = n.content
		if opts.Truncate && opts.Writable() {
			c.truncate(0)
		}
	case errors.Is(err, common.ErrNotFound) && (opts.Create || opts.CreateNew):
		if _, dangling := parent.children.get(leaf); dangling {
			// Name taken by a dangling symlink; creating through it is
			// not supported.
			return nil, common.ErrNotFound
		}
		n := fs.arena.allocFile(parent.id)
		parent.children.put(leaf, n.id)
		parent.mtime = time.Now()
		c = n.content
	default:
		return nil, err
	}

	h := fs.handles.allocate(c, opts)
	if opts.Append {
		h.cursor = c.size()
	}
	return h, nil
}

// lookupFileLocked resolves path to a regular file node, following
// symlinks.
func (fs *MemFS) lookupFileLocked(path string) (*node, error) {
	id, err := fs.resolveLocked(path, true)
	if err != nil {
		return nil, err
	}
	n, found := fs.arena.get(id)
	if !found {
		return nil, common.ErrNotFound
	}
	if n.isDir() {
		return nil, common.ErrIsDir
	}
	return n, nil
}

// detachLocked unlinks a child name from a directory.
func (fs *MemFS) detachLocked(parent *node, name string) {
	parent.children.remove(name)
	parent.mtime = time.Now()
}

// destroyLocked drops a detached node and its subtree from the arena. File
// content still held open survives until its last handle closes; the
// unlink flag marks it for release at that point.
func (fs *MemFS) destroyLocked(n *node) {
	switch {
	case n.isDir():
		for _, name := range n.children.list() {
			if childID, ok := n.children.get(name); ok {
				if child, ok := fs.arena.get(childID); ok {
					fs.destroyLocked(child)
				}
			}
		}
	case n.isFile():
		n.content.unlink()
	}
	fs.arena.drop(n.id)
}

func (fs *MemFS) metadataLocked(id NodeID, path string) (vfs.Metadata, error) {
	n, found := fs.arena.get(id)
	if !found {
		return vfs.Metadata{}, common.WrapOp("stat", path, common.ErrNotFound)
	}
	md := vfs.Metadata{Type: n.fileType, ModTime: n.mtime, Ino: int64(n.id)}
	switch {
	case n.isFile():
		md.Size = n.content.size()
		md.ModTime = n.content.mtime
		md.Ino = n.content.ino
	case n.isSymlink():
		md.Size = int64(len(n.target))
	}
	return md, nil
}
