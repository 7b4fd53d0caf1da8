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
	"errors"
	"fmt"
)

// Error kinds shared by every backend. Callers match on these with
// errors.Is; message text is not part of the contract.
var (
	ErrNotFound      = errors.New("not found")
	ErrExists        = errors.New("already exists")
	ErrNotDir        = errors.New("not a directory")
	ErrIsDir         = errors.New("is a directory")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrPermission    = errors.New("permission denied")
	ErrInvalid       = errors.New("invalid argument")
	ErrInvalidData   = errors.New("invalid data")
	ErrTooManyLinks  = errors.New("too many levels of symbolic links")
	ErrClosed        = errors.New("file already closed")
	ErrInvalidHandle = errors.New("invalid handle")
)

// OpError records the operation and path that produced an error kind.
// Unwrap exposes the kind so errors.Is(err, common.ErrNotFound) works on
// the wrapped form.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WrapOp wraps err with operation and path context. Returns nil for a nil
// err so call sites can wrap unconditionally.
func WrapOp(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Path: path, Err: err}
}
