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
	"errors"
	"io"
	iofs "io/fs"
	"syscall"

	"swapfs/internal/common"
)

// mapErr translates a native filesystem error onto the shared taxonomy so
// both backends report the same kind for the same condition. Unrecognized
// errors pass through opaque.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, iofs.ErrNotExist):
		return common.ErrNotFound
	case errors.Is(err, iofs.ErrExist):
		return common.ErrExists
	case errors.Is(err, iofs.ErrPermission):
		return common.ErrPermission
	case errors.Is(err, iofs.ErrClosed):
		return common.ErrClosed
	case errors.Is(err, syscall.ENOTDIR):
		return common.ErrNotDir
	case errors.Is(err, syscall.EISDIR):
		return common.ErrIsDir
	case errors.Is(err, syscall.ENOTEMPTY):
		return common.ErrNotEmpty
	case errors.Is(err, syscall.ELOOP):
		return common.ErrTooManyLinks
	case errors.Is(err, syscall.EINVAL):
		return common.ErrInvalid
	case errors.Is(err, syscall.EBADF):
		return common.ErrClosed
	}
	return err
}
