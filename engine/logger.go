package engine

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	defaultLogLines  = 1000
	writeBatchSize   = 10
	writeFlushPeriod = 100 * time.Millisecond
)

// Logger keeps the engine's diagnostic lines in a fixed-size ring for
// the UI and mirrors them to a file through an async batched writer.
// Distinct from sessionlog.Log, which records packets.
type Logger struct {
	mu       sync.Mutex
	ring     []string
	capacity int
	head     int
	count    int

	filePath string
	file     *os.File
	ch       chan string
	closed   bool
}

// NewLogger builds a logger. filePath may be empty for memory-only use.
func NewLogger(filePath string, capacity int) *Logger {
	if capacity <= 0 {
		capacity = defaultLogLines
	}

	l := &Logger{
		ring:     make([]string, capacity),
		capacity: capacity,
		filePath: filePath,
		ch:       make(chan string, 100),
	}

	if err := l.openFile(); err != nil {
		return l
	}
	go l.writer()
	return l
}

func (l *Logger) openFile() error {
	if l.filePath == "" {
		return nil
	}
	if dir := filepath.Dir(l.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Write appends one line. The line lands in the ring immediately; the
// file copy is best-effort and may lag behind.
func (l *Logger) Write(line string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.ring[l.head] = line
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}

	select {
	case l.ch <- line:
	default:
	}
}

// ReadAll returns the buffered lines, oldest first.
func (l *Logger) ReadAll() string {
	if l == nil {
		return ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return ""
	}

	start := 0
	if l.count >= l.capacity {
		start = l.head
	}

	var out []byte
	for i := 0; i < l.count; i++ {
		idx := (start + i) % l.capacity
		if l.ring[idx] != "" {
			out = append(out, l.ring[idx]...)
			out = append(out, '\n')
		}
	}
	return string(out)
}

// Chan exposes the line stream so a UI can wake on new output.
func (l *Logger) Chan() <-chan string {
	if l == nil {
		return nil
	}
	return l.ch
}

func (l *Logger) writer() {
	batch := make([]string, 0, writeBatchSize)
	ticker := time.NewTicker(writeFlushPeriod)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 || l.file == nil {
			return
		}

		l.mu.Lock()
		defer l.mu.Unlock()

		if l.closed {
			batch = batch[:0]
			return
		}
		for _, line := range batch {
			l.file.WriteString(line + "\n")
		}
		batch = batch[:0]
	}

	for {
		select {
		case line, ok := <-l.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, line)
			if len(batch) >= writeBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (l *Logger) Close() {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.ch)

	if l.file != nil {
		l.file.Close()
	}
}
