package dispatch_test

import (
	"os"
	"testing"
	"time"
)

// timeAfter returns the modification time of path shifted by seconds.
func timeAfter(t *testing.T, path string, seconds int) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.ModTime().Add(time.Duration(seconds) * time.Second)
}
