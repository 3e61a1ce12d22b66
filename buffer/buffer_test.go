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
	"io"
	"os"
	"strings"
	"testing"
)

func TestInMemory_RoundTrip(t *testing.T) {
	blob, err := InMemory(strings.NewReader("hello, buffer"))
	if err != nil {
		t.Fatalf("InMemory: %v", err)
	}
	defer blob.Remove()

	if blob.Len() != len("hello, buffer") {
		t.Errorf("wrong Len: want %d, got %d", len("hello, buffer"), blob.Len())
	}

	for i := 0; i < 2; i++ {
		r, err := blob.Open()
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		contents, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if string(contents) != "hello, buffer" {
			t.Errorf("wrong contents on read %d: %q", i, contents)
		}
	}
}

func TestInFile_RoundTripAndRemove(t *testing.T) {
	dir := t.TempDir()

	blob, err := InFile(bytes.NewReader([]byte("spilled to disk")), dir)
	if err != nil {
		t.Fatalf("InFile: %v", err)
	}

	fb, ok := blob.(FileBuffer)
	if !ok {
		t.Fatalf("expected FileBuffer, got %T", blob)
	}
	if blob.Len() != len("spilled to disk") {
		t.Errorf("wrong Len: want %d, got %d", len("spilled to disk"), blob.Len())
	}

	r, err := blob.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	contents, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(contents) != "spilled to disk" {
		t.Errorf("wrong contents: %q", contents)
	}

	if err := blob.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(fb.Path); !os.IsNotExist(err) {
		t.Errorf("backing file still exists after Remove: %v", err)
	}
}

func TestBytesReader_Bytes(t *testing.T) {
	br := NewBytesReader([]byte("abcdef"))

	buf := make([]byte, 2)
	if _, err := br.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(br.Bytes()) != "cdef" {
		t.Errorf("wrong unread portion: %q", br.Bytes())
	}
	if string(br.Copy().Bytes()) != "cdef" {
		t.Errorf("wrong Copy contents: %q", br.Copy().Bytes())
	}
}
