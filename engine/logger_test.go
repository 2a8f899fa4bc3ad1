package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerRingWrap(t *testing.T) {
	l := NewLogger("", 3)
	defer l.Close()

	for i := 1; i <= 5; i++ {
		l.Write(fmt.Sprintf("line %d", i))
	}

	got := l.ReadAll()
	want := "line 3\nline 4\nline 5\n"
	if got != want {
		t.Errorf("ReadAll = %q, want %q", got, want)
	}
}

func TestLoggerEmpty(t *testing.T) {
	l := NewLogger("", 10)
	defer l.Close()
	if got := l.ReadAll(); got != "" {
		t.Errorf("ReadAll on empty logger = %q", got)
	}
}

func TestLoggerNilSafe(t *testing.T) {
	var l *Logger
	l.Write("ignored")
	if got := l.ReadAll(); got != "" {
		t.Errorf("nil ReadAll = %q", got)
	}
	l.Close()
}

func TestLoggerWriteAfterClose(t *testing.T) {
	l := NewLogger("", 10)
	l.Write("before")
	l.Close()
	l.Write("after")
	l.Close()

	if got := l.ReadAll(); got != "before\n" {
		t.Errorf("ReadAll = %q, want just the pre-close line", got)
	}
}

func TestLoggerFileMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")
	l := NewLogger(path, 100)
	defer l.Close()

	// A full batch forces an immediate flush.
	for i := 0; i < writeBatchSize; i++ {
		l.Write(fmt.Sprintf("entry %d", i))
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && strings.Count(string(data), "\n") >= writeBatchSize {
			if !strings.Contains(string(data), "entry 0") || !strings.Contains(string(data), fmt.Sprintf("entry %d", writeBatchSize-1)) {
				t.Fatalf("file content = %q", data)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("log file never reached the batch size")
}
