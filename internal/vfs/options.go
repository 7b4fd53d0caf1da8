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

package vfs

import "os"

// OpenOptions selects the access mode and creation behavior for OpenFile.
// The zero value opens nothing useful; start from ReadOnly/WriteOnly/
// ReadWrite or build one field by field.
type OpenOptions struct {
	Read      bool
	Write     bool
	Append    bool // writes go to end-of-content; cursor follows
	Truncate  bool // drop existing content on open
	Create    bool // create the file if missing
	CreateNew bool // create the file; fail with ErrExists if present
}

// ReadOnly returns options for plain reading.
func ReadOnly() OpenOptions {
	return OpenOptions{Read: true}
}

// WriteOnly returns options that create or truncate the target for writing.
func WriteOnly() OpenOptions {
	return OpenOptions{Write: true, Create: true, Truncate: true}
}

// ReadWrite returns options for reading and writing an existing file.
func ReadWrite() OpenOptions {
	return OpenOptions{Read: true, Write: true}
}

// Writable reports whether the options request any form of write access.
func (o OpenOptions) Writable() bool {
	return o.Write || o.Append
}

// OptionsFromOSFlags converts os.OpenFile flag bits to OpenOptions, the
// inverse of OSFlags. Used by adapters that speak the os flag convention.
func OptionsFromOSFlags(flag int) OpenOptions {
	accMode := flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
	return OpenOptions{
		Read:      accMode == os.O_RDONLY || accMode == os.O_RDWR,
		Write:     accMode == os.O_WRONLY || accMode == os.O_RDWR,
		Append:    flag&os.O_APPEND != 0,
		Truncate:  flag&os.O_TRUNC != 0,
		Create:    flag&os.O_CREATE != 0 && flag&os.O_EXCL == 0,
		CreateNew: flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0,
	}
}

// OSFlags converts the options to os.OpenFile flag bits for the disk
// backend. CreateNew implies Create at the OS level (O_CREATE|O_EXCL).
func (o OpenOptions) OSFlags() int {
	var flags int
	switch {
	case o.Read && o.Writable():
		flags = os.O_RDWR
	case o.Writable():
		flags = os.O_WRONLY
	default:
		flags = os.O_RDONLY
	}
	if o.Append {
		flags |= os.O_APPEND
	}
	if o.Truncate {
		flags |= os.O_TRUNC
	}
	if o.Create || o.CreateNew {
		flags |= os.O_CREATE
	}
	if o.CreateNew {
		flags |= os.O_EXCL
	}
	return flags
}
