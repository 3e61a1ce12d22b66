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
	"path/filepath"
	"strings"
	"testing"
)

const testBlob = "This is my content with some length to it..."

func readBack(t *testing.T, w *Writer) string {
	t.Helper()

	r, err := w.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	defer r.Close()
	contents, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(contents)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	return matches
}

func TestWriter_InMemoryRoundTrip(t *testing.T) {
	f := NewFactory(200, 100, t.TempDir())

	w := f.NewWriter()
	defer w.Close()

	if _, err := io.WriteString(w, testBlob); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !w.InMemory() {
		t.Error("contents should have stayed in memory")
	}
	if len(dirEntries(t, f.CacheDir())) != 0 {
		t.Error("unexpected file in the cache directory")
	}

	if got := readBack(t, w); got != testBlob {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestWriter_SpillsPastInstanceLimit(t *testing.T) {
	f := NewFactory(200, 10, t.TempDir())

	w := f.NewWriter()
	defer w.Close()

	// 44 bytes with a 10 byte instance budget.
	if _, err := io.WriteString(w, testBlob); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.InMemory() {
		t.Error("contents should have spilled to disk")
	}
	if len(dirEntries(t, f.CacheDir())) != 1 {
		t.Errorf("expected exactly one cache file, got %v", dirEntries(t, f.CacheDir()))
	}

	if got := readBack(t, w); got != testBlob {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestWriter_SpillsPastPoolLimit(t *testing.T) {
	f := NewFactory(20, 20, t.TempDir())

	// First writer eats most of the pool.
	first := f.NewWriter()
	defer first.Close()
	if _, err := io.WriteString(first, strings.Repeat("x", 18)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Fits in the instance budget, but not in what is left of the pool.
	second := f.NewWriter()
	defer second.Close()
	if _, err := io.WriteString(second, "0123456789"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if second.InMemory() {
		t.Error("second writer should have spilled, pool is exhausted")
	}
	if got := readBack(t, second); got != "0123456789" {
		t.Errorf("round trip mismatch after pool-forced spill: %q", got)
	}
}

func TestWriter_SnapshotExcludesLaterWrites(t *testing.T) {
	f := NewFactory(200, 10, t.TempDir())

	w := f.NewWriter()
	defer w.Close()

	if _, err := io.WriteString(w, testBlob); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r, err := w.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	defer r.Close()

	if _, err := io.WriteString(w, "MORE"); err != nil {
		t.Fatalf("Write after snapshot: %v", err)
	}

	contents, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(contents) != testBlob {
		t.Errorf("snapshot sees later writes: %q", contents)
	}
	if w.Len() != int64(len(testBlob)+4) {
		t.Errorf("wrong Len: %d", w.Len())
	}
}

func TestWriter_CloseDeletesFile(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(200, 10, dir)

	w := f.NewWriter()
	if _, err := io.WriteString(w, testBlob); err != nil {
		t.Fatalf("Write: %v", err)
	}

	files := dirEntries(t, dir)
	if len(files) != 1 {
		t.Fatalf("expected one cache file, got %v", files)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(files[0]); !os.IsNotExist(err) {
		t.Errorf("cache file still exists after Close: %v", err)
	}

	// Idempotent.
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := io.WriteString(w, "x"); err != ErrClosed {
		t.Errorf("Write after Close: want ErrClosed, got %v", err)
	}
}

func TestFactory_PoolAccounting(t *testing.T) {
	f := NewFactory(1000, 100, t.TempDir())

	if f.PoolMemory() != 0 {
		t.Errorf("fresh factory reports %d bytes used", f.PoolMemory())
	}

	w1 := f.NewWriter()
	w2 := f.NewWriter()
	if _, err := io.WriteString(w1, strings.Repeat("a", 40)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := io.WriteString(w2, strings.Repeat("b", 25)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if f.PoolMemory() != 65 {
		t.Errorf("wrong PoolMemory: want 65, got %d", f.PoolMemory())
	}
	if f.PoolRemaining() != 935 {
		t.Errorf("wrong PoolRemaining: want 935, got %d", f.PoolRemaining())
	}

	w1.Close()
	if f.PoolMemory() != 25 {
		t.Errorf("closed stream still accounted: %d", f.PoolMemory())
	}
	w2.Close()
	if f.PoolMemory() != 0 {
		t.Errorf("closed stream still accounted: %d", f.PoolMemory())
	}
}
