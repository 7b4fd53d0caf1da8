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

import "time"

// content is the shared byte buffer behind a file node. Open handles and
// the tree node reference the same record, so a file unlinked while open
// stays readable until its last handle closes. The unlinked flag plus the
// handle counter decide the release point explicitly: data is dropped
// exactly when both unlinked is set and handles reaches zero.
type content struct {
	data     []byte
	handles  int
	unlinked bool
	freed    bool

	ino   int64
	mtime time.Time
}

func newContent(ino int64) *content {
	return &content{ino: ino, mtime: time.Now()}
}

func (c *content) size() int64 {
	return int64(len(c.data))
}

func (c *content) touch() {
	c.mtime = time.Now()
}

// retain records a new open handle on the content.
func (c *content) retain() {
	c.handles++
}

// release records a handle close, freeing the buffer if the content is
// both unlinked and no longer referenced. Returns true when the buffer
// was freed.
func (c *content) release() bool {
	if c.handles > 0 {
		c.handles--
	}
	if c.unlinked && c.handles == 0 && !c.freed {
		c.data = nil
		c.freed = true
		return true
	}
	return false
}

// unlink marks the content detached from the tree, freeing the buffer
// immediately when no handle holds it. Returns true when the buffer was
// freed.
func (c *content) unlink() bool {
	c.unlinked = true
	if c.handles == 0 && !c.freed {
		c.data = nil
		c.freed = true
		return true
	}
	return false
}

// truncate resizes the buffer, zero-filling on growth.
func (c *content) truncate(size int64) {
	switch {
	case size < c.size():
		c.data = c.data[:size]
	case size > c.size():
		grown := make([]byte, size)
		copy(grown, c.data)
		c.data = grown
	}
	c.touch()
}

// readAt copies bytes starting at off into p, returning the count. A read
// at or past end-of-content returns 0.
func (c *content) readAt(p []byte, off int64) int {
	if off >= c.size() {
		return 0
	}
	return copy(p, c.data[off:])
}

// writeAt writes p at off, extending the buffer with zero bytes when off
// is past the current end (gaps are not sparse).
func (c *content) writeAt(p []byte, off int64) int {
	end := off + int64(len(p))
	if end > c.size() {
		grown := make([]byte, end)
		copy(grown, c.data)
		c.data = grown
	}
	copy(c.data[off:end], p)
	c.touch()
	return len(p)
}
