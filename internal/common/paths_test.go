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

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"simple absolute", "/a/b/c", []string{"a", "b", "c"}},
		{"relative resolves identically", "a/b/c", []string{"a", "b", "c"}},
		{"root", "/", nil},
		{"empty", "", nil},
		{"trailing slash", "/a/b/", []string{"a", "b"}},
		{"double slashes", "//a///b", []string{"a", "b"}},
		{"single dot collapsed", "/a/./b", []string{"a", "b"}},
		{"dot only", ".", nil},
		{"dotdot removes previous", "/a/b/../c", []string{"a", "c"}},
		{"dotdot clamps at root", "/../../a", []string{"a"}},
		{"dotdot to root", "/a/..", nil},
		{"mixed", "/a/./b/../c/", []string{"a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitPath(tt.path))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"root", "/", "/"},
		{"empty", "", "/"},
		{"simple", "/a/b", "/a/b"},
		{"relative", "a/b", "/a/b"},
		{"trailing slash", "/a/b/", "/a/b"},
		{"dots", "/a/./b/..", "/a"},
		{"clamped dotdot", "/..", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizePath(tt.path))
		})
	}
}

func TestParentAndBase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/", ParentPath("/"))
	assert.Equal(t, "/", ParentPath("/a"))
	assert.Equal(t, "/a", ParentPath("/a/b"))
	assert.Equal(t, "/a/b", ParentPath("/a/b/c"))

	assert.Equal(t, "", BaseName("/"))
	assert.Equal(t, "a", BaseName("/a"))
	assert.Equal(t, "c", BaseName("/a/b/c"))
	assert.Equal(t, "b", BaseName("/a/b/"))
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b", JoinPath("a", "b"))
	assert.Equal(t, "/a/b", JoinPath("/a", "b"))
	assert.Equal(t, "/a/c", JoinPath("/a", "b", "..", "c"))
	assert.Equal(t, "/", JoinPath())
}
