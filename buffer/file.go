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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileBuffer stores the blob in a file.
type FileBuffer struct {
	Path string

	// LenHint is the size of the stored blob. When non-zero it is
	// returned by Len directly, avoiding an os.Stat call.
	LenHint int
}

func (fb FileBuffer) Open() (io.ReadCloser, error) {
	return os.Open(fb.Path)
}

func (fb FileBuffer) Len() int {
	if fb.LenHint != 0 {
		return fb.LenHint
	}

	info, err := os.Stat(fb.Path)
	if err != nil {
		// Any access to the file will probably fail too, so there is no
		// sensible value to report.
		return 0
	}

	return int(info.Size())
}

func (fb FileBuffer) Remove() error {
	return os.Remove(fb.Path)
}

// TempPath returns a path for a new uniquely named file in dir.
func TempPath(dir string) string {
	return filepath.Join(dir, uuid.New().String())
}

// InFile copies r into a uniquely named file created in dir and returns a
// FileBuffer referring to it.
func InFile(r io.Reader, dir string) (Buffer, error) {
	path := TempPath(dir)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("buffer: failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("buffer: failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("buffer: failed to close file: %w", err)
	}

	return FileBuffer{Path: path, LenHint: int(n)}, nil
}
