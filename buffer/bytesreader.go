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

package buffer

import (
	"bytes"
)

// BytesReader is a bytes.Reader that remembers the original slice and can
// hand it back via Bytes. Some libraries check for a Bytes() method on the
// io.Reader they receive and skip a copy when it is present.
type BytesReader struct {
	*bytes.Reader
	value []byte
}

// Bytes returns the unread portion of the underlying slice.
func (br BytesReader) Bytes() []byte {
	return br.value[int(br.Size())-br.Len():]
}

// Copy returns a BytesReader reading from the same slice at the same
// position as br.
func (br BytesReader) Copy() BytesReader {
	return NewBytesReader(br.Bytes())
}

// Close implements io.Closer as a no-op so BytesReader satisfies
// io.ReadCloser and can be returned from MemoryBuffer.Open directly.
func (br BytesReader) Close() error {
	return nil
}

func NewBytesReader(b []byte) BytesReader {
	// Returned by value, BytesReader is already two pointers big.
	return BytesReader{
		Reader: bytes.NewReader(b),
		value:  b,
	}
}
