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

// Package streamcache implements re-readable stream wrappers that buffer
// data in memory up to a configurable limit and transparently continue on
// disk past it.
//
// All streams are created by a Factory which enforces a shared ("pool")
// in-memory budget across its live streams in addition to the per-stream
// ("instance") budget. Once a stream outgrows its in-memory allowance, its
// cached contents move to a uniquely named file in the cache directory and
// stay there for the rest of the stream lifetime.
//
// Streams hold OS resources once spilled; the creator must Close them.
// Closing deletes the backing file, if any.
package streamcache

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/foxcpp/go-commons/log"
)

// ErrClosed is returned by stream operations after Close.
var ErrClosed = errors.New("streamcache: stream is closed")

// Default memory budgets used when NewFactory is given non-positive
// values.
const (
	DefaultPoolMemory     = 64 * 1024 * 1024
	DefaultInstanceMemory = 1024 * 1024
)

type stream interface {
	// memUsed reports the stream's current in-memory footprint. It must
	// be safe to call from any goroutine.
	memUsed() int64
}

// Factory is the single point of construction for cached streams sharing
// one memory budget.
//
// The factory keeps an exact registry of its live streams: streams are
// added on creation and removed by Close. Pool accounting is still only a
// soft limit since admission checks from concurrently used streams may
// race with each other and transiently overshoot it.
//
// Factory is safe for use from multiple goroutines. Individual streams
// are not.
type Factory struct {
	poolMax     int64
	instanceMax int64
	dir         string

	Log log.Logger

	mu      sync.Mutex
	streams map[stream]struct{}
}

// NewFactory creates a Factory with the given pool-wide and per-stream
// in-memory budgets (bytes). Non-positive values select the defaults. The
// per-stream budget is clamped to the pool budget.
//
// Spilled data goes to uniquely named files in dir, or in the system
// temporary directory if dir is empty.
func NewFactory(poolMemory, instanceMemory int64, dir string) *Factory {
	if poolMemory <= 0 {
		poolMemory = DefaultPoolMemory
	}
	if instanceMemory <= 0 {
		instanceMemory = DefaultInstanceMemory
	}
	if instanceMemory > poolMemory {
		instanceMemory = poolMemory
	}
	if dir == "" {
		dir = os.TempDir()
	}

	return &Factory{
		poolMax:     poolMemory,
		instanceMax: instanceMemory,
		dir:         dir,
		Log:         log.Logger{Name: "streamcache"},
		streams:     map[stream]struct{}{},
	}
}

// CacheDir returns the directory used for spilled stream contents.
func (f *Factory) CacheDir() string {
	return f.dir
}

// PoolMaxMemory returns the pool-wide in-memory budget.
func (f *Factory) PoolMaxMemory() int64 {
	return f.poolMax
}

// InstanceMaxMemory returns the per-stream in-memory budget.
func (f *Factory) InstanceMaxMemory() int64 {
	return f.instanceMax
}

// PoolMemory returns the amount of bytes currently buffered in memory by
// the factory's live streams.
func (f *Factory) PoolMemory() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for s := range f.streams {
		total += s.memUsed()
	}
	return total
}

// PoolRemaining returns the amount of bytes that can still be buffered in
// memory before the pool budget is reached.
func (f *Factory) PoolRemaining() int64 {
	remaining := f.poolMax - f.PoolMemory()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NewReader creates a cached stream wrapping src. Bytes are copied into
// the cache as they are first read through the returned Reader, allowing
// it to be rewound and re-read without touching src again.
func (f *Factory) NewReader(src io.Reader) *Reader {
	r := &Reader{
		f:   f,
		t:   newTracker(f),
		log: f.Log,
		src: src,
	}
	f.register(r, "reader")
	return r
}

// NewWriter creates a cached stream collecting everything written to it.
func (f *Factory) NewWriter() *Writer {
	w := &Writer{
		f:   f,
		t:   newTracker(f),
		log: f.Log,
	}
	f.register(w, "writer")
	return w
}

func (f *Factory) register(s stream, kind string) {
	f.mu.Lock()
	f.streams[s] = struct{}{}
	f.mu.Unlock()

	openStreams.WithLabelValues(kind).Inc()
}

func (f *Factory) unregister(s stream, kind string) {
	f.mu.Lock()
	delete(f.streams, s)
	f.mu.Unlock()

	openStreams.WithLabelValues(kind).Dec()
}
