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

package memfs

import (
	"context"
	"io"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

// memFile is a vfs.File over an open handle. The handle pins the shared
// content record, so reads keep working after the file is unlinked from
// the tree.
type memFile struct {
	fs   *MemFS
	h    *openHandle
	path string
}

var _ vfs.File = (*memFile)(nil)

// Read implements vfs.File.
func (f *memFile) Read(ctx context.Context, p []byte) (int, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	if f.h.closed {
		return 0, common.WrapOp("read", f.path, common.ErrClosed)
	}
	if !f.h.opts.Read {
		return 0, common.WrapOp("read", f.path, common.ErrInvalid)
	}
	f.h.cursorMu.Lock()
	defer f.h.cursorMu.Unlock()
	n := f.h.content.readAt(p, f.h.cursor)
	f.h.cursor += int64(n)
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements vfs.File. In append mode every write lands at
// end-of-content regardless of the cursor.
func (f *memFile) Write(ctx context.Context, p []byte) (int, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.h.closed {
		return 0, common.WrapOp("write", f.path, common.ErrClosed)
	}
	if !f.h.opts.Writable() {
		return 0, common.WrapOp("write", f.path, common.ErrInvalid)
	}
	off := f.h.cursor
	if f.h.opts.Append {
		off = f.h.content.size()
	}
	n := f.h.content.writeAt(p, off)
	f.h.cursor = off + int64(n)
	f.h.dirty = true
	return n, nil
}

// Seek implements vfs.File.
func (f *memFile) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	if f.h.closed {
		return 0, common.WrapOp("seek", f.path, common.ErrClosed)
	}
	f.h.cursorMu.Lock()
	defer f.h.cursorMu.Unlock()
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.h.cursor + offset
	case io.SeekEnd:
		pos = f.h.content.size() + offset
	default:
		return 0, common.WrapOp("seek", f.path, common.ErrInvalid)
	}
	if pos < 0 {
		return 0, common.WrapOp("seek", f.path, common.ErrInvalid)
	}
	f.h.cursor = pos
	return pos, nil
}

// Truncate implements vfs.File.
func (f *memFile) Truncate(ctx context.Context, size int64) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.h.closed {
		return common.WrapOp("truncate", f.path, common.ErrClosed)
	}
	if !f.h.opts.Writable() {
		return common.WrapOp("truncate", f.path, common.ErrInvalid)
	}
	if size < 0 {
		return common.WrapOp("truncate", f.path, common.ErrInvalid)
	}
	f.h.content.truncate(size)
	f.h.dirty = true
	return nil
}

// Stat implements vfs.File. Valid after unlink: the handle still pins the
// content.
func (f *memFile) Stat(ctx context.Context) (vfs.Metadata, error) {
	if err := vfs.Yield(ctx); err != nil {
		return vfs.Metadata{}, err
	}
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	if f.h.closed {
		return vfs.Metadata{}, common.WrapOp("stat", f.path, common.ErrClosed)
	}
	return vfs.Metadata{
		Type:    vfs.FileTypeRegularFile,
		Size:    f.h.content.size(),
		ModTime: f.h.content.mtime,
		Ino:     f.h.content.ino,
	}, nil
}

// Close implements vfs.File.
func (f *memFile) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.h.closed {
		return common.WrapOp("close", f.path, common.ErrClosed)
	}
	f.h.closed = true
	f.fs.handles.release(f.h)
	return nil
}
