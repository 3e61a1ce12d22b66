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

// Package sysexec runs external helper processes with argument
// placeholder expansion, line-based output callbacks and structured
// exit status errors.
package sysexec

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/foxcpp/go-commons/buffer"
	"github.com/foxcpp/go-commons/exterrors"
	"github.com/foxcpp/go-commons/log"
)

// Last part of stderr attached to ExitError for diagnostics.
const stderrTailLimit = 4096

var placeholderRe = regexp.MustCompile(`{[a-zA-Z0-9_]+?}`)

// Cmd describes an external command to run. Zero value is not usable,
// Path is required.
type Cmd struct {
	Path string
	Args []string

	// Env and Dir are passed to the process as-is. Empty Env means
	// "inherit", matching os/exec.
	Env []string
	Dir string

	Stdin io.Reader

	// OnStdout and OnStderr, if set, are called for every line the
	// process writes to the corresponding stream, without the line
	// terminator. Calls are sequential per stream but the two streams
	// are read concurrently.
	OnStdout func(line string)
	OnStderr func(line string)

	Log log.Logger
}

// ExitError is returned when the process exits with a non-zero status.
type ExitError struct {
	Cmd  string
	Code int
	// Stderr holds up to the last 4 KiB the process wrote to stderr,
	// when no OnStderr callback consumed the stream.
	Stderr []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("sysexec: %s: exit status %d", e.Cmd, e.Code)
}

func (e *ExitError) Fields() map[string]interface{} {
	f := map[string]interface{}{
		"cmd":       e.Cmd,
		"exit_code": e.Code,
	}
	if len(e.Stderr) != 0 {
		f["stderr"] = string(e.Stderr)
	}
	return f
}

// Expand returns a copy of the Cmd with {name} placeholders in Args
// replaced using vals. Placeholders with no entry in vals are left
// unchanged.
func (c Cmd) Expand(vals map[string]string) Cmd {
	expanded := make([]string, len(c.Args))
	for i, arg := range c.Args {
		expanded[i] = placeholderRe.ReplaceAllStringFunc(arg, func(placeholder string) string {
			val, ok := vals[strings.Trim(placeholder, "{}")]
			if !ok {
				return placeholder
			}
			return val
		})
	}
	c.Args = expanded
	return c
}

// Run starts the process and waits for it to finish. A non-zero exit
// status is reported as *ExitError. Cancelling ctx kills the process.
func (c *Cmd) Run(ctx context.Context) error {
	return c.run(ctx, nil)
}

// Output runs the process and returns its stdout as a buffer. The
// OnStdout callback is ignored.
func (c *Cmd) Output(ctx context.Context) (buffer.Buffer, error) {
	var out bytes.Buffer
	if err := c.run(ctx, &out); err != nil {
		return nil, err
	}
	return buffer.MemoryBuffer{Slice: out.Bytes()}, nil
}

func (c *Cmd) run(ctx context.Context, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin

	var eg errgroup.Group

	switch {
	case stdout != nil:
		cmd.Stdout = stdout
	case c.OnStdout != nil:
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return exterrors.WithFields(err, map[string]interface{}{"cmd": cmd.String()})
		}
		callback := c.OnStdout
		eg.Go(func() error {
			return scanLines(pipe, callback)
		})
	}

	tail := &tailWriter{limit: stderrTailLimit}
	if c.OnStderr != nil {
		pipe, err := cmd.StderrPipe()
		if err != nil {
			return exterrors.WithFields(err, map[string]interface{}{"cmd": cmd.String()})
		}
		callback := c.OnStderr
		eg.Go(func() error {
			return scanLines(pipe, callback)
		})
	} else {
		cmd.Stderr = tail
	}

	if err := cmd.Start(); err != nil {
		return exterrors.WithFields(err, map[string]interface{}{"cmd": cmd.String()})
	}
	c.Log.Debugf("running %s", cmd.String())

	// Pipes must be drained before Wait closes them.
	scanErr := eg.Wait()
	if err := cmd.Wait(); err != nil {
		return wrapWaitErr(cmd.String(), err, tail.Bytes())
	}
	return scanErr
}

// FeedLines runs the command at path, writing each line to its stdin,
// and waits for it to exit. This is the conventional protocol of
// authentication and policy helper binaries.
func FeedLines(ctx context.Context, path string, args []string, lines ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	tail := &tailWriter{limit: stderrTailLimit}
	cmd.Stderr = tail

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("sysexec: stdin init: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("sysexec: process start: %w", err)
	}
	for _, line := range lines {
		if _, err := io.WriteString(stdin, line+"\n"); err != nil {
			return fmt.Errorf("sysexec: stdin write: %w", err)
		}
	}
	if err := stdin.Close(); err != nil {
		return fmt.Errorf("sysexec: stdin close: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return wrapWaitErr(cmd.String(), err, tail.Bytes())
	}
	return nil
}

func wrapWaitErr(cmdLine string, err error, stderr []byte) error {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return exterrors.WithFields(err, map[string]interface{}{"cmd": cmdLine})
	}
	if len(exitErr.Stderr) != 0 {
		stderr = exitErr.Stderr
	}
	return &ExitError{
		Cmd:    cmdLine,
		Code:   exitErr.ExitCode(),
		Stderr: stderr,
	}
}

func scanLines(r io.Reader, callback func(line string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		callback(scanner.Text())
	}
	return scanner.Err()
}

// tailWriter keeps only the last limit bytes written to it.
type tailWriter struct {
	limit int
	buf   []byte
}

func (w *tailWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	if len(w.buf) > w.limit {
		w.buf = w.buf[len(w.buf)-w.limit:]
	}
	return len(b), nil
}

func (w *tailWriter) Bytes() []byte {
	return w.buf
}
