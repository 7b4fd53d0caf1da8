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

package diskfs

import (
	"context"
	"io"
	"os"
	"sync"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

// diskFile is a vfs.File over a native file descriptor. The kernel keeps
// unlinked-but-open content alive, so delete-while-open behaves the same
// as the in-memory backend.
type diskFile struct {
	f    *os.File
	path string
	opts vfs.OpenOptions

	mu     sync.Mutex
	closed bool
}

var _ vfs.File = (*diskFile)(nil)

// Read implements vfs.File.
func (f *diskFile) Read(ctx context.Context, p []byte) (int, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	if !f.opts.Read {
		return 0, common.WrapOp("read", f.path, common.ErrInvalid)
	}
	n, err := f.f.Read(p)
	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, common.WrapOp("read", f.path, mapErr(err))
	}
	return n, nil
}

// Write implements vfs.File.
func (f *diskFile) Write(ctx context.Context, p []byte) (int, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	if !f.opts.Writable() {
		return 0, common.WrapOp("write", f.path, common.ErrInvalid)
	}
	n, err := f.f.Write(p)
	if err != nil {
		return n, common.WrapOp("write", f.path, mapErr(err))
	}
	return n, nil
}

// Seek implements vfs.File.
func (f *diskFile) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if err := vfs.Yield(ctx); err != nil {
		return 0, err
	}
	pos, err := f.f.Seek(offset, whence)
	if err != nil {
		return pos, common.WrapOp("seek", f.path, mapErr(err))
	}
	return pos, nil
}

// Truncate implements vfs.File.
func (f *diskFile) Truncate(ctx context.Context, size int64) error {
	if err := vfs.Yield(ctx); err != nil {
		return err
	}
	if !f.opts.Writable() {
		return common.WrapOp("truncate", f.path, common.ErrInvalid)
	}
	if size < 0 {
		return common.WrapOp("truncate", f.path, common.ErrInvalid)
	}
	return common.WrapOp("truncate", f.path, mapErr(f.f.Truncate(size)))
}

// Stat implements vfs.File.
func (f *diskFile) Stat(ctx context.Context) (vfs.Metadata, error) {
	if err := vfs.Yield(ctx); err != nil {
		return vfs.Metadata{}, err
	}
	info, err := f.f.Stat()
	if err != nil {
		return vfs.Metadata{}, common.WrapOp("stat", f.path, mapErr(err))
	}
	return metadataFromInfo(info), nil
}

// Close implements vfs.File.
func (f *diskFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return common.WrapOp("close", f.path, common.ErrClosed)
	}
	f.closed = true
	return common.WrapOp("close", f.path, mapErr(f.f.Close()))
}

// diskDirIter serves the listing snapshot taken by ReadDir.
type diskDirIter struct {
	entries []vfs.DirEntry
	idx     int
}

var _ vfs.DirIter = (*diskDirIter)(nil)

func (it *diskDirIter) Next(ctx context.Context) (*vfs.DirEntry, error) {
	if err := vfs.Yield(ctx); err != nil {
		return nil, err
	}
	if it.idx >= len(it.entries) {
		return nil, io.EOF
	}
	entry := it.entries[it.idx]
	it.idx++
	return &entry, nil
}
