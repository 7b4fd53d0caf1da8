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

package fsutil

import (
	"context"
	"io"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

// CopyAll mirrors the subtree at path from src into dst, which may be
// different backends (the usual direction: an in-memory staging store onto
// disk). Not transactional: entries copied before a failure remain in dst.
// Callers that need all-or-nothing should copy into a scratch path and
// Rename into place.
func CopyAll(ctx context.Context, dst, src vfs.FS, path string) error {
	path = common.NormalizePath(path)
	md, err := src.Lstat(ctx, path)
	if err != nil {
		return err
	}
	return copyEntry(ctx, dst, src, path, md.Type)
}

func copyEntry(ctx context.Context, dst, src vfs.FS, path string, fileType vfs.FileType) error {
	switch fileType {
	case vfs.FileTypeDirectory:
		if err := dst.CreateDirAll(ctx, path); err != nil {
			return err
		}
		iter, err := src.ReadDir(ctx, path)
		if err != nil {
			return err
		}
		for {
			entry, err := iter.Next(ctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := copyEntry(ctx, dst, src, common.JoinPath(path, entry.Name), entry.Type); err != nil {
				return err
			}
		}
	case vfs.FileTypeSymlink:
		target, err := src.Readlink(ctx, path)
		if err != nil {
			return err
		}
		return dst.Symlink(ctx, target, path)
	default:
		data, err := src.ReadFile(ctx, path)
		if err != nil {
			return err
		}
		return dst.WriteFile(ctx, path, data)
	}
}
