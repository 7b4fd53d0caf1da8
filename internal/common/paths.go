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

import "strings"

// SplitPath splits a path into clean name components. Empty components and
// "." are discarded; ".." removes the previous component and is a no-op at
// the root (matching how a real filesystem treats "/.."). Absolute and
// relative paths resolve identically because every path is interpreted
// against the store root.
func SplitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
			// discard
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}

// NormalizePath returns the canonical rooted form of a path: "/" joined
// clean components, "/" for the root itself.
func NormalizePath(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// JoinPath joins components into a normalized rooted path.
func JoinPath(parts ...string) string {
	return NormalizePath(strings.Join(parts, "/"))
}

// ParentPath returns the parent directory of a normalized path. The parent
// of the root is the root.
func ParentPath(path string) string {
	parts := SplitPath(path)
	if len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/")
}

// BaseName returns the final component of a path, or "" for the root.
func BaseName(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
