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
	"time"

	"swapfs/internal/vfs"
)

// NodeID is a stable identifier into the arena. IDs are allocated
// monotonically and never reused while a node or handle references them.
type NodeID int64

// RootID is the identity of the root directory. The root has no parent.
const RootID NodeID = 0

// node is one entry of the arena: a directory, file, or symlink. Directories
// hold their children by name; files hold a shared content record; symlinks
// hold their target path. Parent is a reverse lookup, not an owning
// reference; the tree is owned by the arena alone.
type node struct {
	id       NodeID
	fileType vfs.FileType
	parent   NodeID

	children *childSet // directories only
	content  *content  // files only
	target   string    // symlinks only

	mtime time.Time
}

func (n *node) isDir() bool {
	return n.fileType == vfs.FileTypeDirectory
}

func (n *node) isFile() bool {
	return n.fileType == vfs.FileTypeRegularFile
}

func (n *node) isSymlink() bool {
	return n.fileType == vfs.FileTypeSymlink
}

// childSet maps child names to node IDs, preserving insertion order for
// directory listings.
type childSet struct {
	names []string
	index map[string]NodeID
}

func newChildSet() *childSet {
	return &childSet{index: make(map[string]NodeID)}
}

func (cs *childSet) get(name string) (NodeID, bool) {
	id, ok := cs.index[name]
	return id, ok
}

func (cs *childSet) put(name string, id NodeID) {
	if _, ok := cs.index[name]; !ok {
		cs.names = append(cs.names, name)
	}
	cs.index[name] = id
}

func (cs *childSet) remove(name string) {
	if _, ok := cs.index[name]; !ok {
		return
	}
	delete(cs.index, name)
	for i, n := range cs.names {
		if n == name {
			cs.names = append(cs.names[:i], cs.names[i+1:]...)
			break
		}
	}
}

func (cs *childSet) len() int {
	return len(cs.names)
}

// list returns the child names in insertion order. The slice is a copy,
// safe to hold across mutations.
func (cs *childSet) list() []string {
	out := make([]string, len(cs.names))
	copy(out, cs.names)
	return out
}

// nameOf returns the name a child ID is linked under, for reverse path
// reconstruction.
func (cs *childSet) nameOf(id NodeID) (string, bool) {
	for name, child := range cs.index {
		if child == id {
			return name, true
		}
	}
	return "", false
}

// arena owns every node by identity, independent of tree position. A node
// detached from the tree is dropped from the arena immediately; its content
// record lives on while handles reference it.
type arena struct {
	nodes map[NodeID]*node
	next  NodeID
}

func newArena() *arena {
	a := &arena{
		nodes: make(map[NodeID]*node),
		next:  RootID + 1,
	}
	a.nodes[RootID] = &node{
		id:       RootID,
		fileType: vfs.FileTypeDirectory,
		parent:   RootID,
		children: newChildSet(),
		mtime:    time.Now(),
	}
	return a
}

func (a *arena) root() *node {
	return a.nodes[RootID]
}

func (a *arena) get(id NodeID) (*node, bool) {
	n, ok := a.nodes[id]
	return n, ok
}

func (a *arena) allocDir(parent NodeID) *node {
	n := &node{
		id:       a.next,
		fileType: vfs.FileTypeDirectory,
		parent:   parent,
		children: newChildSet(),
		mtime:    time.Now(),
	}
	a.next++
	a.nodes[n.id] = n
	return n
}

func (a *arena) allocFile(parent NodeID) *node {
	n := &node{
		id:       a.next,
		fileType: vfs.FileTypeRegularFile,
		parent:   parent,
		mtime:    time.Now(),
	}
	n.content = newContent(int64(n.id))
	a.next++
	a.nodes[n.id] = n
	return n
}

func (a *arena) allocSymlink(parent NodeID, target string) *node {
	n := &node{
		id:       a.next,
		fileType: vfs.FileTypeSymlink,
		parent:   parent,
		target:   target,
		mtime:    time.Now(),
	}
	a.next++
	a.nodes[n.id] = n
	return n
}

// drop removes a node from the arena. Content cleanup is the caller's
// responsibility; see MemFS.destroyLocked.
func (a *arena) drop(id NodeID) {
	delete(a.nodes, id)
}

// len reports the number of live nodes, root included.
func (a *arena) len() int {
	return len(a.nodes)
}
