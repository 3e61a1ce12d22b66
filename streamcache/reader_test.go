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

package streamcache

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestReader_InMemoryRewind(t *testing.T) {
	f := NewFactory(200, 100, t.TempDir())

	r := f.NewReader(strings.NewReader(testBlob))
	defer r.Close()

	for i := 0; i < 2; i++ {
		contents, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll %d: %v", i, err)
		}
		if string(contents) != testBlob {
			t.Errorf("read %d mismatch: %q", i, contents)
		}
		if !r.InMemory() {
			t.Errorf("read %d: contents should have stayed in memory", i)
		}
		if err := r.Rewind(); err != nil {
			t.Fatalf("Rewind %d: %v", i, err)
		}
	}
}

func TestReader_SpilledRewind(t *testing.T) {
	f := NewFactory(200, 10, t.TempDir())

	r := f.NewReader(strings.NewReader(testBlob))
	defer r.Close()

	for i := 0; i < 3; i++ {
		contents, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll %d: %v", i, err)
		}
		if string(contents) != testBlob {
			t.Errorf("read %d mismatch: %q", i, contents)
		}
		if err := r.Rewind(); err != nil {
			t.Fatalf("Rewind %d: %v", i, err)
		}
	}
	if r.InMemory() {
		t.Error("contents should have spilled to disk")
	}
}

// The source must be consumed exactly once no matter how many times the
// contents are read back.
func TestReader_SourceConsumedOnce(t *testing.T) {
	f := NewFactory(200, 100, t.TempDir())

	src := &countingReader{Reader: strings.NewReader(testBlob)}
	r := f.NewReader(src)
	defer r.Close()

	for i := 0; i < 2; i++ {
		if _, err := io.ReadAll(r); err != nil {
			t.Fatalf("ReadAll %d: %v", i, err)
		}
		if err := r.Rewind(); err != nil {
			t.Fatalf("Rewind %d: %v", i, err)
		}
	}

	if src.read != len(testBlob) {
		t.Errorf("source consumed %d bytes, expected %d", src.read, len(testBlob))
	}
}

type countingReader struct {
	Reader io.Reader
	read   int
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.Reader.Read(p)
	cr.read += n
	return n, err
}

func TestReader_MarkReset(t *testing.T) {
	f := NewFactory(200, 100, t.TempDir())

	r := f.NewReader(strings.NewReader("abcdefgh"))
	defer r.Close()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}

	r.Mark()
	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != "efgh" {
		t.Errorf("wrong contents after Reset: %q", rest)
	}
}

func TestReader_LengthBeforeFullRead(t *testing.T) {
	f := NewFactory(200, 10, t.TempDir())

	r := f.NewReader(strings.NewReader(testBlob))
	defer r.Close()

	buf := make([]byte, 3)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}

	length, err := r.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if length != int64(len(testBlob)) {
		t.Errorf("wrong Length: want %d, got %d", len(testBlob), length)
	}
	if !r.FullyCached() {
		t.Error("Length should have consumed the source")
	}

	// Position is preserved: the next read continues after the first 3
	// bytes.
	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != testBlob[3:] {
		t.Errorf("position not preserved by Length: %q", rest)
	}
}

func TestReader_CloseDeletesFile(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(200, 10, dir)

	r := f.NewReader(strings.NewReader(testBlob))
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	files := dirEntries(t, dir)
	if len(files) != 1 {
		t.Fatalf("expected one cache file, got %v", files)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(files[0]); !os.IsNotExist(err) {
		t.Errorf("cache file still exists after Close: %v", err)
	}

	buf := make([]byte, 1)
	if _, err := r.Read(buf); err != ErrClosed {
		t.Errorf("Read after Close: want ErrClosed, got %v", err)
	}
	if err := r.Rewind(); err != ErrClosed {
		t.Errorf("Rewind after Close: want ErrClosed, got %v", err)
	}
}

func TestReader_PartialThenRewind(t *testing.T) {
	f := NewFactory(200, 100, t.TempDir())

	r := f.NewReader(strings.NewReader(testBlob))
	defer r.Close()

	// Consume only part of the source, rewind, then read everything.
	buf := make([]byte, 7)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if err := r.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}

	contents, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(contents) != testBlob {
		t.Errorf("mismatch after partial read and rewind: %q", contents)
	}
}
