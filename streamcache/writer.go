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
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/foxcpp/go-commons/buffer"
	"github.com/foxcpp/go-commons/exterrors"
	"github.com/foxcpp/go-commons/log"
)

// Writer collects everything written to it, in memory while the memory
// budget permits and in a file in the factory cache directory afterwards.
// The collected bytes can be read back at any point via Buffer or Reader
// without disturbing the Writer.
//
// Writer implements io.WriteCloser. Close deletes the backing file, it
// must be called once the contents are no longer needed.
type Writer struct {
	f   *Factory
	t   *tracker
	log log.Logger

	mem    []byte
	file   *os.File
	path   string
	n      int64
	memUse atomic.Int64
	closed bool
}

func (w *Writer) memUsed() int64 {
	return w.memUse.Load()
}

// Len returns the total amount of bytes written so far.
func (w *Writer) Len() int64 {
	return w.n
}

// InMemory reports whether the contents are still buffered in memory.
func (w *Writer) InMemory() bool {
	return w.file == nil && !w.closed
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}

	if w.file == nil {
		if w.t.fits(int64(len(w.mem)), int64(len(p))) {
			w.mem = append(w.mem, p...)
			w.memUse.Store(int64(len(w.mem)))
			w.n += int64(len(p))
			return len(p), nil
		}
		if err := w.spill(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, exterrors.WithFields(fmt.Errorf("streamcache: write: %w", err),
			map[string]interface{}{"path": w.path})
	}
	return n, nil
}

// spill moves the in-memory contents to a newly created file and directs
// all following writes there. The transition is one-way.
func (w *Writer) spill() error {
	path := buffer.TempPath(w.f.dir)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("streamcache: spill: %w", err)
	}
	if _, err := file.Write(w.mem); err != nil {
		file.Close()
		os.Remove(path)
		return exterrors.WithFields(fmt.Errorf("streamcache: spill: %w", err),
			map[string]interface{}{"path": path})
	}

	w.file = file
	w.path = path
	w.mem = nil
	w.memUse.Store(0)

	w.log.DebugMsg("writer spilled to disk", "path", path, "bytes", w.n)
	spillsTotal.WithLabelValues("writer").Inc()
	return nil
}

// Buffer returns a snapshot of everything written so far. The snapshot
// shares storage with the Writer: it stays readable while the Writer is
// open and its Remove is a no-op. Bytes written after the call are not
// part of the snapshot.
func (w *Writer) Buffer() (buffer.Buffer, error) {
	if w.closed {
		return nil, ErrClosed
	}

	if w.file == nil {
		return buffer.MemoryBuffer{Slice: w.mem[:len(w.mem):len(w.mem)]}, nil
	}
	return fileView{path: w.path, size: w.n}, nil
}

// Reader returns a reader over everything written so far. The Writer
// stays usable; bytes written after the call are not visible through the
// returned reader.
func (w *Writer) Reader() (io.ReadCloser, error) {
	b, err := w.Buffer()
	if err != nil {
		return nil, err
	}
	rc, err := b.Open()
	if err != nil {
		return nil, fmt.Errorf("streamcache: reader: %w", err)
	}
	return rc, nil
}

// Close discards the collected contents: the memory buffer is released
// and the backing file, if any, is deleted. Close is idempotent; writes
// after Close fail with ErrClosed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.mem = nil
	w.memUse.Store(0)
	w.f.unregister(w, "writer")

	if w.file == nil {
		return nil
	}
	closeErr := w.file.Close()
	removeErr := os.Remove(w.path)
	w.file = nil
	if closeErr != nil {
		return fmt.Errorf("streamcache: close: %w", closeErr)
	}
	if removeErr != nil {
		return fmt.Errorf("streamcache: close: %w", removeErr)
	}
	return nil
}

// fileView is a read-only window into a file owned by a live stream.
// Remove is a no-op since the storage lifetime is managed by the stream.
type fileView struct {
	path string
	size int64
}

func (v fileView) Open() (io.ReadCloser, error) {
	f, err := os.Open(v.path)
	if err != nil {
		return nil, err
	}
	// Cap reads at the snapshot size, the stream may have grown since.
	return limitedFile{Reader: io.LimitReader(f, v.size), f: f}, nil
}

type limitedFile struct {
	io.Reader
	f *os.File
}

func (lf limitedFile) Close() error {
	return lf.f.Close()
}

func (v fileView) Len() int {
	return int(v.size)
}

func (v fileView) Remove() error {
	return nil
}
