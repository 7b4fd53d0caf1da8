package memfs

import (
	"context"
	"io"

	"swapfs/internal/vfs"
)

// memDirIter iterates a directory snapshot taken at ReadDir time. Finite,
// non-restartable; mutations after the snapshot are not reflected.
type memDirIter struct {
	entries []vfs.DirEntry
	idx     int
}

var _ vfs.DirIter = (*memDirIter)(nil)

func (it *memDirIter) Next(ctx context.Context) (*vfs.DirEntry, error) {
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
