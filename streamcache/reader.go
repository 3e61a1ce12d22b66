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

// Reader wraps a source stream and copies bytes into a cache as they are
// first read through it. Once cached, the contents can be re-read any
// number of times (see Rewind, Mark, Reset) without touching the source
// again. The cache lives in memory while the memory budget permits and in
// a file in the factory cache directory afterwards.
//
// Reader implements io.ReadCloser. Close deletes the backing file, it
// must be called once the contents are no longer needed.
type Reader struct {
	f   *Factory
	t   *tracker
	log log.Logger

	// src is the original stream; nil once it hit EOF.
	src io.Reader

	mem    []byte
	file   *os.File
	path   string
	cached int64
	pos    int64
	mark   int64
	memUse atomic.Int64
	closed bool
}

func (r *Reader) memUsed() int64 {
	return r.memUse.Load()
}

// InMemory reports whether the cached contents are still held in memory.
func (r *Reader) InMemory() bool {
	return r.file == nil && !r.closed
}

// FullyCached reports whether the source has been consumed to EOF.
func (r *Reader) FullyCached() bool {
	return r.src == nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Serve previously cached bytes first.
	if r.pos < r.cached {
		n, err := r.readCached(p)
		r.pos += int64(n)
		return n, err
	}

	if r.src == nil {
		return 0, io.EOF
	}

	n, err := r.src.Read(p)
	if n > 0 {
		if cacheErr := r.cacheAppend(p[:n]); cacheErr != nil {
			return 0, cacheErr
		}
		r.pos = r.cached
	}
	if err == io.EOF {
		r.src = nil
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
	return n, err
}

func (r *Reader) readCached(p []byte) (int, error) {
	avail := r.cached - r.pos
	if int64(len(p)) > avail {
		p = p[:avail]
	}

	if r.file == nil {
		return copy(p, r.mem[r.pos:]), nil
	}

	n, err := r.file.ReadAt(p, r.pos)
	if err != nil && err != io.EOF {
		return n, exterrors.WithFields(fmt.Errorf("streamcache: read: %w", err),
			map[string]interface{}{"path": r.path})
	}
	return n, nil
}

func (r *Reader) cacheAppend(b []byte) error {
	if r.file == nil {
		if r.t.fits(int64(len(r.mem)), int64(len(b))) {
			r.mem = append(r.mem, b...)
			r.memUse.Store(int64(len(r.mem)))
			r.cached += int64(len(b))
			return nil
		}
		if err := r.spill(); err != nil {
			return err
		}
	}

	if _, err := r.file.WriteAt(b, r.cached); err != nil {
		return exterrors.WithFields(fmt.Errorf("streamcache: cache write: %w", err),
			map[string]interface{}{"path": r.path})
	}
	r.cached += int64(len(b))
	return nil
}

func (r *Reader) spill() error {
	path := buffer.TempPath(r.f.dir)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("streamcache: spill: %w", err)
	}
	if _, err := file.WriteAt(r.mem, 0); err != nil {
		file.Close()
		os.Remove(path)
		return exterrors.WithFields(fmt.Errorf("streamcache: spill: %w", err),
			map[string]interface{}{"path": path})
	}

	r.file = file
	r.path = path
	r.mem = nil
	r.memUse.Store(0)

	r.log.DebugMsg("reader spilled to disk", "path", path, "bytes", r.cached)
	spillsTotal.WithLabelValues("reader").Inc()
	return nil
}

// Rewind resets the read position to the start of the cached contents.
// The source stream is not touched; following reads are served from the
// cache until it is exhausted. The mark is reset too.
func (r *Reader) Rewind() error {
	if r.closed {
		return ErrClosed
	}
	r.pos = 0
	r.mark = 0
	return nil
}

// Mark remembers the current read position for a later Reset.
func (r *Reader) Mark() {
	r.mark = r.pos
}

// Reset moves the read position back to the last Mark, or to the start of
// the stream if Mark was never called.
func (r *Reader) Reset() error {
	if r.closed {
		return ErrClosed
	}
	r.pos = r.mark
	return nil
}

// Length returns the total size of the stream contents. If the source is
// not yet fully consumed, Length caches the remainder first. The read
// position is left unchanged.
func (r *Reader) Length() (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}

	pos := r.pos
	r.pos = r.cached
	scratch := make([]byte, 4096)
	for r.src != nil {
		if _, err := r.Read(scratch); err != nil {
			if err == io.EOF {
				break
			}
			r.pos = pos
			return 0, err
		}
	}
	r.pos = pos
	return r.cached, nil
}

// Buffer returns a snapshot of the bytes cached so far. The snapshot
// shares storage with the Reader: it stays readable while the Reader is
// open and its Remove is a no-op.
func (r *Reader) Buffer() (buffer.Buffer, error) {
	if r.closed {
		return nil, ErrClosed
	}

	if r.file == nil {
		return buffer.MemoryBuffer{Slice: r.mem[:len(r.mem):len(r.mem)]}, nil
	}
	return fileView{path: r.path, size: r.cached}, nil
}

// Close discards the cached contents: the memory buffer is released and
// the backing file, if any, is deleted. The source stream is not closed.
// Close is idempotent; reads after Close fail with ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	r.mem = nil
	r.memUse.Store(0)
	r.src = nil
	r.f.unregister(r, "reader")

	if r.file == nil {
		return nil
	}
	closeErr := r.file.Close()
	removeErr := os.Remove(r.path)
	r.file = nil
	if closeErr != nil {
		return fmt.Errorf("streamcache: close: %w", closeErr)
	}
	if removeErr != nil {
		return fmt.Errorf("streamcache: close: %w", removeErr)
	}
	return nil
}
