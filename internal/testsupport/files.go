package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size < 0 writes a single byte; zero creates an
// empty file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size < 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteReport creates a crash report of size bytes in dir and returns its path.
func WriteReport(t testing.TB, dir, name string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	WriteFile(t, path, size)
	return path
}

// SetTimes overrides a file's access and modification times.
func SetTimes(t testing.TB, path string, atime, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, atime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// MarkSeen makes path look opened after it was last written.
func MarkSeen(t testing.TB, path string) {
	t.Helper()
	mtime := time.Now().Add(-time.Hour)
	SetTimes(t, path, mtime.Add(time.Minute), mtime)
}

// MarkUnseen makes path look written after it was last opened.
func MarkUnseen(t testing.TB, path string) {
	t.Helper()
	mtime := time.Now().Add(-time.Hour)
	SetTimes(t, path, mtime.Add(-time.Minute), mtime)
}
