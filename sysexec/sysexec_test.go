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

package sysexec

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/foxcpp/go-commons/exterrors"
)

func TestExpand(t *testing.T) {
	cmd := Cmd{
		Path: "notify",
		Args: []string{"--user", "{user}", "--from", "{addr}", "{unknown}"},
	}
	expanded := cmd.Expand(map[string]string{
		"user": "foxcpp",
		"addr": "127.0.0.1",
	})

	want := []string{"--user", "foxcpp", "--from", "127.0.0.1", "{unknown}"}
	if !reflect.DeepEqual(expanded.Args, want) {
		t.Errorf("wrong expansion: %v", expanded.Args)
	}
	// Original is left untouched.
	if cmd.Args[1] != "{user}" {
		t.Errorf("source Cmd modified: %v", cmd.Args)
	}
}

func TestRun_OnStdout(t *testing.T) {
	var lines []string
	cmd := Cmd{
		Path: "sh",
		Args: []string{"-c", "echo one; echo two"},
		OnStdout: func(line string) {
			lines = append(lines, line)
		},
	}

	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"one", "two"}) {
		t.Errorf("wrong lines: %v", lines)
	}
}

func TestRun_ExitError(t *testing.T) {
	cmd := Cmd{
		Path: "sh",
		Args: []string{"-c", "echo oops >&2; exit 3"},
	}

	err := cmd.Run(context.Background())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("wrong exit code: %d", exitErr.Code)
	}
	if !strings.Contains(string(exitErr.Stderr), "oops") {
		t.Errorf("stderr tail not captured: %q", exitErr.Stderr)
	}

	fields := exterrors.Fields(err)
	if fields["exit_code"] != 3 {
		t.Errorf("exit_code missing from error fields: %v", fields)
	}
}

func TestOutput(t *testing.T) {
	cmd := Cmd{
		Path: "sh",
		Args: []string{"-c", "printf hello"},
	}

	out, err := cmd.Output(context.Background())
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	r, err := out.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	blob, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(blob) != "hello" {
		t.Errorf("wrong output: %q", blob)
	}
}

func TestFeedLines(t *testing.T) {
	script := `read user; read pass; [ "$user" = "foxcpp" ] && [ "$pass" = "1234" ]`

	err := FeedLines(context.Background(), "sh", []string{"-c", script}, "foxcpp", "1234")
	if err != nil {
		t.Errorf("unexpected failure: %v", err)
	}

	err = FeedLines(context.Background(), "sh", []string{"-c", script}, "foxcpp", "wrong")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("wrong exit code: %d", exitErr.Code)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cmd := Cmd{
		Path: "sh",
		Args: []string{"-c", "sleep 30"},
	}

	start := time.Now()
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected failure after cancellation")
	}
	if time.Since(start) > 10*time.Second {
		t.Error("process not killed on cancellation")
	}
}
