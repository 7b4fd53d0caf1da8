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
	"strings"

	"swapfs/internal/common"
)

// maxLinkDepth bounds symlink indirection during resolution. A chain (or
// cycle) deeper than this fails with ErrTooManyLinks. Matches the Linux
// kernel limit.
const maxLinkDepth = 40

// rawComponents splits a symlink target into walk components, keeping ".."
// for the walker to apply against the link's directory.
func rawComponents(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// walkLocked resolves a component stack starting at from, substituting
// symlink targets as they are encountered. followFinal controls whether a
// symlink in final position is itself resolved. Caller holds the store
// lock.
func (fs *MemFS) walkLocked(from NodeID, parts []string, followFinal bool) (NodeID, error) {
	cur := from
	depth := 0

	for len(parts) > 0 {
		name := parts[0]
		parts = parts[1:]

		// ".." only appears here via symlink targets; user paths are
		// collapsed lexically before the walk. Clamped at the root.
		if name == ".." {
			n, ok := fs.arena.get(cur)
			if !ok {
				return 0, common.ErrNotFound
			}
			cur = n.parent
			continue
		}

		dir, ok := fs.arena.get(cur)
		if !ok {
			return 0, common.ErrNotFound
		}
		if !dir.isDir() {
			return 0, common.ErrNotDir
		}

		childID, ok := dir.children.get(name)
		if !ok {
			return 0, common.ErrNotFound
		}
		child, ok := fs.arena.get(childID)
		if !ok {
			return 0, common.ErrNotFound
		}

		if child.isSymlink() && (len(parts) > 0 || followFinal) {
			depth++
			if depth > maxLinkDepth {
				return 0, common.ErrTooManyLinks
			}
			target := rawComponents(child.target)
			if strings.HasPrefix(child.target, "/") {
				cur = RootID
			}
			// Relative targets resolve against the link's directory;
			// cur already points there.
			parts = append(target, parts...)
			continue
		}

		cur = childID
	}

	return cur, nil
}

// resolveLocked resolves a path from the root. "." and ".." in the input
// are collapsed lexically first (".." clamps at the root), then symlinks
// are substituted during the walk.
func (fs *MemFS) resolveLocked(path string, followFinal bool) (NodeID, error) {
	return fs.walkLocked(RootID, common.SplitPath(path), followFinal)
}

// resolveParentLocked resolves everything but the final component of path,
// returning the parent directory node and the leaf name. The leaf itself
// may or may not exist. A path naming the root returns ok=false.
func (fs *MemFS) resolveParentLocked(path string) (parent *node, leaf string, ok bool, err error) {
	parts := common.SplitPath(path)
	if len(parts) == 0 {
		return nil, "", false, nil
	}
	leaf = parts[len(parts)-1]

	parentID, err := fs.walkLocked(RootID, parts[:len(parts)-1], true)
	if err != nil {
		return nil, "", false, err
	}
	p, found := fs.arena.get(parentID)
	if !found {
		return nil, "", false, common.ErrNotFound
	}
	if !p.isDir() {
		return nil, "", false, common.ErrNotDir
	}
	return p, leaf, true, nil
}

// pathOfLocked reconstructs the normalized rooted path of a live node by
// following parent links up to the root.
func (fs *MemFS) pathOfLocked(id NodeID) (string, error) {
	if id == RootID {
		return "/", nil
	}
	var parts []string
	for id != RootID {
		n, ok := fs.arena.get(id)
		if !ok {
			return "", common.ErrNotFound
		}
		parent, ok := fs.arena.get(n.parent)
		if !ok || !parent.isDir() {
			return "", common.ErrNotFound
		}
		name, ok := parent.children.nameOf(id)
		if !ok {
			return "", common.ErrNotFound
		}
		parts = append([]string{name}, parts...)
		id = parent.id
	}
	return "/" + strings.Join(parts, "/"), nil
}
