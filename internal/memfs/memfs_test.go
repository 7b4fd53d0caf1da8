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
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapfs/internal/common"
	"swapfs/internal/vfs"
)

func TestCreateDir(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates under existing parent", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/a"))
		md, err := fs.Stat(ctx, "/a")
		require.NoError(t, err)
		assert.True(t, md.IsDir())
	})

	t.Run("fails when parent is missing", func(t *testing.T) {
		t.Parallel()
		fs := New()
		err := fs.CreateDir(ctx, "/a/b")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("fails when path exists", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/a"))
		assert.ErrorIs(t, fs.CreateDir(ctx, "/a"), common.ErrExists)
	})

	t.Run("root already exists", func(t *testing.T) {
		t.Parallel()
		fs := New()
		assert.ErrorIs(t, fs.CreateDir(ctx, "/"), common.ErrExists)
	})
}

func TestCreateDirAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates all ancestors", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b/c"))
		for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
			md, err := fs.Stat(ctx, p)
			require.NoError(t, err, p)
			assert.True(t, md.IsDir(), p)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b/c"))
		before := fs.NodeCount()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b/c"))
		assert.Equal(t, before, fs.NodeCount())
	})

	t.Run("fails on file component", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/a", []byte("x")))
		assert.ErrorIs(t, fs.CreateDirAll(ctx, "/a/b"), common.ErrNotDir)
	})

	t.Run("ancestors survive failure", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a"))
		require.NoError(t, fs.WriteFile(ctx, "/a/f", []byte("x")))
		require.Error(t, fs.CreateDirAll(ctx, "/a/f/deep"))
		ok, err := fs.Exists(ctx, "/a")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"text", []byte("hello world")},
		{"binary", []byte{0x00, 0xff, 0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := New()
			require.NoError(t, fs.WriteFile(ctx, "/f", tt.data))
			got, err := fs.ReadFile(ctx, "/f")
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}

	t.Run("overwrite truncates", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("long content")))
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		got, err := fs.ReadFile(ctx, "/f")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), got)
	})

	t.Run("missing parent", func(t *testing.T) {
		t.Parallel()
		fs := New()
		assert.ErrorIs(t, fs.WriteFile(ctx, "/no/f", []byte("x")), common.ErrNotFound)
	})

	t.Run("write to directory path", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		assert.ErrorIs(t, fs.WriteFile(ctx, "/d", []byte("x")), common.ErrIsDir)
	})

	t.Run("read directory path", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		_, err := fs.ReadFile(ctx, "/d")
		assert.ErrorIs(t, err, common.ErrIsDir)
	})
}

func TestReadFileString(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid utf8", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("héllo")))
		s, err := fs.ReadFileString(ctx, "/f")
		require.NoError(t, err)
		assert.Equal(t, "héllo", s)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte{0xff, 0xfe, 0xfd}))
		_, err := fs.ReadFileString(ctx, "/f")
		assert.ErrorIs(t, err, common.ErrInvalidData)
	})
}

func TestRemoveFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes file", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		require.NoError(t, fs.RemoveFile(ctx, "/f"))
		_, err := fs.Stat(ctx, "/f")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		fs := New()
		assert.ErrorIs(t, fs.RemoveFile(ctx, "/f"), common.ErrNotFound)
	})

	t.Run("directory target", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		assert.ErrorIs(t, fs.RemoveFile(ctx, "/d"), common.ErrIsDir)
	})

	t.Run("removes symlink not target", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		require.NoError(t, fs.Symlink(ctx, "/f", "/l"))
		require.NoError(t, fs.RemoveFile(ctx, "/l"))
		ok, err := fs.Exists(ctx, "/f")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRemoveDir(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes empty directory", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		require.NoError(t, fs.RemoveDir(ctx, "/d"))
		_, err := fs.Stat(ctx, "/d")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("non-empty directory", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/d/e"))
		assert.ErrorIs(t, fs.RemoveDir(ctx, "/d"), common.ErrNotEmpty)
	})

	t.Run("file target", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		assert.ErrorIs(t, fs.RemoveDir(ctx, "/f"), common.ErrNotDir)
	})
}

func TestRemoveDirAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes subtree", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b/c"))
		require.NoError(t, fs.WriteFile(ctx, "/a/b/f", []byte("x")))
		require.NoError(t, fs.RemoveDirAll(ctx, "/a"))
		for _, p := range []string{"/a", "/a/b", "/a/b/c", "/a/b/f"} {
			_, err := fs.Stat(ctx, p)
			assert.ErrorIs(t, err, common.ErrNotFound, p)
		}
		// Only the root remains.
		assert.Equal(t, 1, fs.NodeCount())
	})

	t.Run("missing path is an error", func(t *testing.T) {
		t.Parallel()
		fs := New()
		assert.ErrorIs(t, fs.RemoveDirAll(ctx, "/missing"), common.ErrNotFound)
	})

	t.Run("root is protected", func(t *testing.T) {
		t.Parallel()
		fs := New()
		assert.ErrorIs(t, fs.RemoveDirAll(ctx, "/"), common.ErrInvalid)
	})
}

func TestRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("moves file", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("data")))
		require.NoError(t, fs.Rename(ctx, "/f", "/g"))
		got, err := fs.ReadFile(ctx, "/g")
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), got)
		_, err = fs.Stat(ctx, "/f")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("moves directory with contents", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b"))
		require.NoError(t, fs.WriteFile(ctx, "/a/b/f", []byte("x")))
		require.NoError(t, fs.Rename(ctx, "/a", "/z"))
		got, err := fs.ReadFile(ctx, "/z/b/f")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), got)
	})

	t.Run("file overwrites file", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("new")))
		require.NoError(t, fs.WriteFile(ctx, "/g", []byte("old")))
		require.NoError(t, fs.Rename(ctx, "/f", "/g"))
		got, err := fs.ReadFile(ctx, "/g")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	})

	t.Run("directory over empty directory", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/x"))
		require.NoError(t, fs.CreateDir(ctx, "/b"))
		require.NoError(t, fs.Rename(ctx, "/a", "/b"))
		ok, err := fs.Exists(ctx, "/b/x")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("directory over non-empty directory", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/a"))
		require.NoError(t, fs.CreateDirAll(ctx, "/b/keep"))
		assert.ErrorIs(t, fs.Rename(ctx, "/a", "/b"), common.ErrNotEmpty)
	})

	t.Run("file over directory", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		assert.ErrorIs(t, fs.Rename(ctx, "/f", "/d"), common.ErrIsDir)
	})

	t.Run("directory over file", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		assert.ErrorIs(t, fs.Rename(ctx, "/d", "/f"), common.ErrNotDir)
	})

	t.Run("into own subtree is rejected and tree unchanged", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b"))
		err := fs.Rename(ctx, "/a", "/a/b/c")
		assert.ErrorIs(t, err, common.ErrInvalid)
		for _, p := range []string{"/a", "/a/b"} {
			ok, err := fs.Exists(ctx, p)
			require.NoError(t, err)
			assert.True(t, ok, p)
		}
	})

	t.Run("onto itself is a no-op", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("data")))
		require.NoError(t, fs.Rename(ctx, "/f", "/f"))
		got, err := fs.ReadFile(ctx, "/f")
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), got)
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()
		fs := New()
		assert.ErrorIs(t, fs.Rename(ctx, "/nope", "/g"), common.ErrNotFound)
	})
}

func TestCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("copies file content", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("payload")))
		n, err := fs.Copy(ctx, "/f", "/g")
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		got, err := fs.ReadFile(ctx, "/g")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), got)

		// Copies are independent buffers.
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("changed")))
		got, err = fs.ReadFile(ctx, "/g")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), got)
	})

	t.Run("directory source", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		_, err := fs.Copy(ctx, "/d", "/g")
		assert.ErrorIs(t, err, common.ErrIsDir)
	})
}

func TestDeleteWhileOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	require.NoError(t, fs.WriteFile(ctx, "/f", []byte("survives")))

	f, err := fs.OpenFile(ctx, "/f", vfs.ReadOnly())
	require.NoError(t, err)

	require.NoError(t, fs.RemoveFile(ctx, "/f"))

	// The path is gone...
	_, err = fs.OpenFile(ctx, "/f", vfs.ReadOnly())
	assert.ErrorIs(t, err, common.ErrNotFound)

	// ...but the open handle still reads the original content.
	buf := make([]byte, 16)
	n, err := f.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "survives", string(buf[:n]))

	md, err := f.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), md.Size)

	require.NoError(t, f.Close())
	assert.Equal(t, 0, fs.OpenHandles())

	_, err = fs.OpenFile(ctx, "/f", vfs.ReadOnly())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteWhileOpenViaRemoveDirAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	require.NoError(t, fs.CreateDirAll(ctx, "/d"))
	require.NoError(t, fs.WriteFile(ctx, "/d/f", []byte("kept")))

	f, err := fs.OpenFile(ctx, "/d/f", vfs.ReadOnly())
	require.NoError(t, err)
	require.NoError(t, fs.RemoveDirAll(ctx, "/d"))

	buf := make([]byte, 4)
	n, err := f.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(buf[:n]))
	require.NoError(t, f.Close())
}

func TestOpenFileOptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create new on existing fails", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		_, err := fs.OpenFile(ctx, "/f", vfs.OpenOptions{Write: true, CreateNew: true})
		assert.ErrorIs(t, err, common.ErrExists)
	})

	t.Run("create new on missing succeeds", func(t *testing.T) {
		t.Parallel()
		fs := New()
		f, err := fs.OpenFile(ctx, "/f", vfs.OpenOptions{Write: true, CreateNew: true})
		require.NoError(t, err)
		require.NoError(t, f.Close())
		ok, err := fs.Exists(ctx, "/f")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing without create fails", func(t *testing.T) {
		t.Parallel()
		fs := New()
		_, err := fs.OpenFile(ctx, "/f", vfs.ReadOnly())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("directory target fails", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDir(ctx, "/d"))
		_, err := fs.OpenFile(ctx, "/d", vfs.ReadOnly())
		assert.ErrorIs(t, err, common.ErrIsDir)
	})

	t.Run("no access mode fails", func(t *testing.T) {
		t.Parallel()
		fs := New()
		_, err := fs.OpenFile(ctx, "/f", vfs.OpenOptions{})
		assert.ErrorIs(t, err, common.ErrInvalid)
	})

	t.Run("truncate drops existing content", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("old content")))
		f, err := fs.OpenFile(ctx, "/f", vfs.WriteOnly())
		require.NoError(t, err)
		require.NoError(t, f.Close())
		got, err := fs.ReadFile(ctx, "/f")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestReadDir(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lists in insertion order", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/b", []byte("1")))
		require.NoError(t, fs.WriteFile(ctx, "/a", []byte("22")))
		require.NoError(t, fs.CreateDir(ctx, "/c"))

		iter, err := fs.ReadDir(ctx, "/")
		require.NoError(t, err)

		var names []string
		for {
			entry, err := iter.Next(ctx)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			names = append(names, entry.Name)
		}
		assert.Equal(t, []string{"b", "a", "c"}, names)
	})

	t.Run("snapshot ignores later mutations", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/a", []byte("x")))
		iter, err := fs.ReadDir(ctx, "/")
		require.NoError(t, err)

		require.NoError(t, fs.WriteFile(ctx, "/b", []byte("y")))
		require.NoError(t, fs.RemoveFile(ctx, "/a"))

		entry, err := iter.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a", entry.Name)
		_, err = iter.Next(ctx)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("file target", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		_, err := fs.ReadDir(ctx, "/f")
		assert.ErrorIs(t, err, common.ErrNotDir)
	})

	t.Run("missing target", func(t *testing.T) {
		t.Parallel()
		fs := New()
		_, err := fs.ReadDir(ctx, "/missing")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestSymlinks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("read through link", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("via link")))
		require.NoError(t, fs.Symlink(ctx, "/f", "/l"))
		got, err := fs.ReadFile(ctx, "/l")
		require.NoError(t, err)
		assert.Equal(t, []byte("via link"), got)
	})

	t.Run("relative target", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.CreateDirAll(ctx, "/a/b"))
		require.NoError(t, fs.WriteFile(ctx, "/a/f", []byte("up")))
		require.NoError(t, fs.Symlink(ctx, "../f", "/a/b/l"))
		got, err := fs.ReadFile(ctx, "/a/b/l")
		require.NoError(t, err)
		assert.Equal(t, []byte("up"), got)
	})

	t.Run("lstat sees the link, stat follows", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("abc")))
		require.NoError(t, fs.Symlink(ctx, "/f", "/l"))

		md, err := fs.Lstat(ctx, "/l")
		require.NoError(t, err)
		assert.True(t, md.IsSymlink())

		md, err = fs.Stat(ctx, "/l")
		require.NoError(t, err)
		assert.True(t, md.IsFile())
		assert.Equal(t, int64(3), md.Size)
	})

	t.Run("readlink", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.Symlink(ctx, "/target", "/l"))
		target, err := fs.Readlink(ctx, "/l")
		require.NoError(t, err)
		assert.Equal(t, "/target", target)
	})

	t.Run("readlink on regular file", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
		_, err := fs.Readlink(ctx, "/f")
		assert.ErrorIs(t, err, common.ErrInvalid)
	})

	t.Run("dangling link", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.Symlink(ctx, "/nowhere", "/l"))
		ok, err := fs.Exists(ctx, "/l")
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = fs.ReadFile(ctx, "/l")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("cycle detection", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.Symlink(ctx, "/b", "/a"))
		require.NoError(t, fs.Symlink(ctx, "/a", "/b"))
		_, err := fs.Stat(ctx, "/a")
		assert.ErrorIs(t, err, common.ErrTooManyLinks)
	})

	t.Run("self cycle", func(t *testing.T) {
		t.Parallel()
		fs := New()
		require.NoError(t, fs.Symlink(ctx, "/a", "/a"))
		_, err := fs.ReadFile(ctx, "/a")
		assert.ErrorIs(t, err, common.ErrTooManyLinks)
	})
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	require.NoError(t, fs.CreateDirAll(ctx, "/a/b"))
	require.NoError(t, fs.WriteFile(ctx, "/a/b/f", []byte("x")))
	require.NoError(t, fs.Symlink(ctx, "/a/b", "/link"))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"root", "/", "/"},
		{"plain", "/a/b", "/a/b"},
		{"dots", "/a/./b/../b", "/a/b"},
		{"through symlink", "/link/f", "/a/b/f"},
		{"final symlink resolved", "/link", "/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.Canonicalize(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		_, err := fs.Canonicalize(ctx, "/nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestIntermediateFileComponent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	require.NoError(t, fs.WriteFile(ctx, "/f", []byte("x")))
	_, err := fs.Stat(ctx, "/f/child")
	assert.ErrorIs(t, err, common.ErrNotDir)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	fs := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fs.WriteFile(ctx, "/f", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing was created: the operation aborted at its suspension point.
	ok, err := fs.Exists(context.Background(), "/f")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentIndependence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	require.NoError(t, fs.WriteFile(ctx, "/x", []byte("seed")))

	var wg sync.WaitGroup
	errCh := make(chan error, 300)

	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			errCh <- fs.WriteFile(ctx, "/x", []byte("xxxx"))
		}()
		go func() {
			defer wg.Done()
			errCh <- fs.WriteFile(ctx, "/y", []byte("yyyy"))
		}()
		go func() {
			defer wg.Done()
			_, err := fs.ReadFile(ctx, "/x")
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	for _, p := range []string{"/x", "/y"} {
		got, err := fs.ReadFile(ctx, p)
		require.NoError(t, err)
		assert.Len(t, got, 4, p)
	}
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	require.NoError(t, fs.CreateDirAll(ctx, "/a/b/c"))
	require.NoError(t, fs.WriteFile(ctx, "/a/b/c/d.txt", []byte("hi")))
	s, err := fs.ReadFileString(ctx, "/a/b/c/d.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestErrorsCarryKindNotMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs := New()
	_, err := fs.Stat(ctx, "/missing")
	require.Error(t, err)

	var opErr *common.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "stat", opErr.Op)
	assert.Equal(t, "/missing", opErr.Path)
	assert.ErrorIs(t, opErr, common.ErrNotFound)
}
