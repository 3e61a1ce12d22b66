package log

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/foxcpp/go-commons/exterrors"
)

func collectOutput(msgs *[]string) Output {
	return FuncOutput(func(_ time.Time, debug bool, msg string) {
		prefix := ""
		if debug {
			prefix = "[debug] "
		}
		*msgs = append(*msgs, prefix+msg)
	}, func() error { return nil })
}

func TestLogger_NamePrefix(t *testing.T) {
	var msgs []string
	l := Logger{Out: collectOutput(&msgs), Name: "cache"}

	l.Printf("spill to %s", "/tmp/x")

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if !strings.HasPrefix(msgs[0], "cache: ") {
		t.Errorf("missing name prefix: %q", msgs[0])
	}
}

func TestLogger_DebugSuppressed(t *testing.T) {
	var msgs []string
	l := Logger{Out: collectOutput(&msgs)}

	l.Debugf("should not appear")
	if len(msgs) != 0 {
		t.Errorf("debug message not suppressed: %v", msgs)
	}

	l.Debug = true
	l.Debugf("should appear")
	if len(msgs) != 1 {
		t.Errorf("debug message lost: %v", msgs)
	}
}

func TestLogger_DebugWriter(t *testing.T) {
	var msgs []string
	l := Logger{Out: collectOutput(&msgs)}

	if _, err := l.DebugWriter().Write([]byte("dropped\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("write not discarded without debug: %v", msgs)
	}

	l.Debug = true
	if _, err := l.DebugWriter().Write([]byte("kept\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "kept") {
		t.Errorf("write lost with debug enabled: %v", msgs)
	}
}

func TestLogger_MsgOrderedFields(t *testing.T) {
	var msgs []string
	l := Logger{Out: collectOutput(&msgs)}

	l.Msg("event", "b", 2, "a", 1)

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	// Keys are sorted for deterministic output.
	if !strings.Contains(msgs[0], `{"a":1,"b":2}`) {
		t.Errorf("wrong fields formatting: %q", msgs[0])
	}
}

func TestLogger_ErrorFields(t *testing.T) {
	var msgs []string
	l := Logger{Out: collectOutput(&msgs)}

	err := exterrors.WithFields(errors.New("no space"), map[string]interface{}{
		"path": "/tmp/y",
	})
	l.Error("write failed", err)

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], `"path":"/tmp/y"`) {
		t.Errorf("error fields missing: %q", msgs[0])
	}
	if !strings.Contains(msgs[0], `"reason":"no space"`) {
		t.Errorf("reason missing: %q", msgs[0])
	}
}
