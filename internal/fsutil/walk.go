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

// Package fsutil provides helpers layered on the vfs.FS contract. Working
// only through the facade keeps them backend-agnostic: the same walk or
// copy runs against the in-memory store and the disk store.
package fsutil

import (
	"context"
	"errors"
	"io"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

// SkipDir can be returned from a WalkFunc to skip descending into the
// current directory.
var SkipDir = errors.New("skip this directory")

// WalkFunc is called once per visited entry with its rooted path.
type WalkFunc func(path string, entry vfs.DirEntry) error

// Walk traverses the subtree at root depth-first in directory listing
// order. Symlinks are reported but not followed, so a cyclic link can not
// loop the walk. Each directory listing is the usual call-time snapshot;
// entries created during the walk may or may not be visited.
func Walk(ctx context.Context, fsys vfs.FS, root string, fn WalkFunc) error {
	return walk(ctx, fsys, common.NormalizePath(root), nil, fn)
}

// WalkFiltered is Walk with ignore-rule filtering: matching entries are
// skipped, and matching directories are not descended into.
func WalkFiltered(ctx context.Context, fsys vfs.FS, root string, filter *IgnoreFilter, fn WalkFunc) error {
	return walk(ctx, fsys, common.NormalizePath(root), filter, fn)
}

func walk(ctx context.Context, fsys vfs.FS, dir string, filter *IgnoreFilter, fn WalkFunc) error {
	iter, err := fsys.ReadDir(ctx, dir)
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
		child := common.JoinPath(dir, entry.Name)
		if filter.Match(child, entry.Type == vfs.FileTypeDirectory) {
			continue
		}
		switch err := fn(child, *entry); {
		case errors.Is(err, SkipDir):
			continue
		case err != nil:
			return err
		}
		if entry.Type == vfs.FileTypeDirectory {
			if err := walk(ctx, fsys, child, filter, fn); err != nil {
				return err
			}
		}
	}
}

// IgnoreFilter filters walk entries with gitignore-style rules. The nil
// filter matches nothing.
type IgnoreFilter struct {
	matcher *ignore.GitIgnore
}

// LoadIgnore compiles ignore rules from a file read through the facade,
// e.g. "/.gitignore" of the store being walked.
func LoadIgnore(ctx context.Context, fsys vfs.FS, path string) (*IgnoreFilter, error) {
	text, err := fsys.ReadFileString(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewIgnoreFilter(strings.Split(text, "\n")...), nil
}

// NewIgnoreFilter compiles ignore rules from raw lines.
func NewIgnoreFilter(lines ...string) *IgnoreFilter {
	return &IgnoreFilter{matcher: ignore.CompileIgnoreLines(lines...)}
}

// Match reports whether a rooted path is excluded by the rules. Directory
// paths are also tested with a trailing slash, the gitignore convention
// for dir-only patterns.
func (f *IgnoreFilter) Match(path string, isDir bool) bool {
	if f == nil || f.matcher == nil {
		return false
	}
	rel := strings.TrimPrefix(path, "/")
	if f.matcher.MatchesPath(rel) {
		return true
	}
	return isDir && f.matcher.MatchesPath(rel+"/")
}
