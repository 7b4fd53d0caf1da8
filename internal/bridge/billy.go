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

// Package bridge exposes the in-memory store through the blocking-style
// billy.Filesystem interface, for libraries that require a synchronous
// filesystem.
//
// The adapter runs every facade call to completion eagerly with a
// background context. That is sound only because in-memory operations
// never wait on real I/O: all data is already resident, so no call can
// block the calling goroutine on anything but the store lock. Pointing
// this pattern at a backend whose operations can genuinely block would
// stall synchronous callers, which is why the constructor accepts only
// the in-memory backend.
package bridge

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"swapfs/internal/common"
	"swapfs/internal/memfs"
	"swapfs/internal/vfs"
)

// BillyFS adapts a MemFS to billy.Filesystem.
type BillyFS struct {
	fs *memfs.MemFS
}

var _ billy.Filesystem = (*BillyFS)(nil)

// New creates a billy adapter over an in-memory store.
func New(fs *memfs.MemFS) *BillyFS {
	return &BillyFS{fs: fs}
}

func (b *BillyFS) Create(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
}

func (b *BillyFS) Open(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDONLY, 0)
}

func (b *BillyFS) OpenFile(filename string, flag int, _ os.FileMode) (billy.File, error) {
	f, err := b.fs.OpenFile(context.Background(), filename, vfs.OptionsFromOSFlags(flag))
	if err != nil {
		return nil, err
	}
	return &billyFile{f: f, name: filename}, nil
}

func (b *BillyFS) Stat(filename string) (os.FileInfo, error) {
	md, err := b.fs.Stat(context.Background(), filename)
	if err != nil {
		return nil, err
	}
	return &billyFileInfo{name: path.Base(filename), md: md}, nil
}

func (b *BillyFS) Lstat(filename string) (os.FileInfo, error) {
	md, err := b.fs.Lstat(context.Background(), filename)
	if err != nil {
		return nil, err
	}
	return &billyFileInfo{name: path.Base(filename), md: md}, nil
}

func (b *BillyFS) Rename(oldpath, newpath string) error {
	return b.fs.Rename(context.Background(), oldpath, newpath)
}

// Remove unlinks a file, symlink, or empty directory, matching the native
// remove convention billy callers expect.
func (b *BillyFS) Remove(filename string) error {
	err := b.fs.RemoveFile(context.Background(), filename)
	if errors.Is(err, common.ErrIsDir) {
		return b.fs.RemoveDir(context.Background(), filename)
	}
	return err
}

func (b *BillyFS) Join(elem ...string) string {
	return path.Join(elem...)
}

// TempFile is not supported; the in-memory store has no temp-file notion.
func (b *BillyFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

func (b *BillyFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	ctx := context.Background()
	iter, err := b.fs.ReadDir(ctx, dirname)
	if err != nil {
		return nil, err
	}
	var out []os.FileInfo
	for {
		entry, err := iter.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, &billyFileInfo{
			name: entry.Name,
			md: vfs.Metadata{
				Type: entry.Type,
				Size: entry.Size,
				Ino:  entry.Ino,
			},
		})
	}
}

func (b *BillyFS) MkdirAll(filename string, _ os.FileMode) error {
	return b.fs.CreateDirAll(context.Background(), filename)
}

func (b *BillyFS) Symlink(target, link string) error {
	return b.fs.Symlink(context.Background(), target, link)
}

func (b *BillyFS) Readlink(link string) (string, error) {
	return b.fs.Readlink(context.Background(), link)
}

func (b *BillyFS) Chroot(path string) (billy.Filesystem, error) {
	return nil, billy.ErrNotSupported
}

func (b *BillyFS) Root() string {
	return "/"
}

// Capabilities reports what the adapter supports, for billy callers that
// feature-detect.
func (b *BillyFS) Capabilities() billy.Capability {
	return billy.WriteCapability | billy.ReadCapability |
		billy.ReadAndWriteCapability | billy.SeekCapability | billy.TruncateCapability
}

// billyFile presents a vfs.File as a blocking billy.File. Each call
// completes eagerly; mu serializes ReadAt's save/seek/restore against
// other cursor movement.
type billyFile struct {
	f    vfs.File
	name string
	mu   sync.Mutex
}

var _ billy.File = (*billyFile)(nil)

func (f *billyFile) Name() string {
	return f.name
}

func (f *billyFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Read(context.Background(), p)
}

func (f *billyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Write(context.Background(), p)
}

func (f *billyFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx := context.Background()
	prev, err := f.f.Seek(ctx, 0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if _, err := f.f.Seek(ctx, off, io.SeekStart); err != nil {
		return 0, err
	}
	n, rerr := readFull(ctx, f.f, p)
	if _, err := f.f.Seek(ctx, prev, io.SeekStart); err != nil {
		return n, err
	}
	return n, rerr
}

func (f *billyFile) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Seek(context.Background(), offset, whence)
}

func (f *billyFile) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Truncate(context.Background(), size)
}

func (f *billyFile) Close() error {
	return f.f.Close()
}

// Lock and Unlock are advisory no-ops: the store serializes access
// internally.
func (f *billyFile) Lock() error   { return nil }
func (f *billyFile) Unlock() error { return nil }

// readFull reads until p is full or EOF, the contract ReadAt callers
// expect.
func readFull(ctx context.Context, f vfs.File, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := f.Read(ctx, p[total:])
		total += n
		if err == io.EOF {
			if total == len(p) {
				return total, nil
			}
			return total, io.EOF
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// billyFileInfo implements os.FileInfo over facade metadata.
type billyFileInfo struct {
	name string
	md   vfs.Metadata
}

var _ os.FileInfo = (*billyFileInfo)(nil)

func (i *billyFileInfo) Name() string { return i.name }
func (i *billyFileInfo) Size() int64  { return i.md.Size }

func (i *billyFileInfo) Mode() os.FileMode {
	switch i.md.Type {
	case vfs.FileTypeDirectory:
		return os.ModeDir | 0o755
	case vfs.FileTypeSymlink:
		return os.ModeSymlink | 0o777
	default:
		return 0o644
	}
}

func (i *billyFileInfo) ModTime() time.Time { return i.md.ModTime }
func (i *billyFileInfo) IsDir() bool        { return i.md.IsDir() }
func (i *billyFileInfo) Sys() interface{}   { return nil }
