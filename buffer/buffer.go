/*
go-commons - Cross-cutting utility helpers for Go services.
Copyright © 2020-2021 Max Mazurov <fox.cpp@disroot.org>, go-commons contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package buffer provides abstract temporary storage for byte blobs that
// may be held in memory or on disk.
package buffer

import (
	"io"
)

// Buffer is an immutable blob of bytes stored somewhere.
//
// The underlying storage is assumed to not change for the lifetime of the
// Buffer object. Code that needs a modified version of the blob should
// create a new storage location for it.
//
// Lifetime convention: the creator of a Buffer is responsible for calling
// Remove once the blob is no longer needed. A Buffer passed to a function
// is not guaranteed to remain valid after that function returns; the
// function should "re-buffer" the contents if it needs them later.
type Buffer interface {
	// Open creates a new Reader reading from the underlying storage.
	Open() (io.ReadCloser, error)

	// Len reports the length of the stored blob, that is, the amount of
	// bytes that can be read from a newly created Reader before io.EOF.
	Len() int

	// Remove discards the stored blob and releases associated resources.
	//
	// Multiple Buffer objects may share one underlying storage, in which
	// case Remove should be called only once for all of them. Readers
	// created before Remove stay usable, new ones cannot be created.
	Remove() error
}

// MemoryBuffer stores the blob in a byte slice.
type MemoryBuffer struct {
	Slice []byte
}

func (mb MemoryBuffer) Open() (io.ReadCloser, error) {
	return NewBytesReader(mb.Slice), nil
}

func (mb MemoryBuffer) Len() int {
	return len(mb.Slice)
}

func (mb MemoryBuffer) Remove() error {
	return nil
}

// InMemory reads r until EOF and returns a MemoryBuffer with its contents.
func InMemory(r io.Reader) (Buffer, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return MemoryBuffer{Slice: blob}, nil
}
