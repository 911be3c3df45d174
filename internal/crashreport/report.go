package crashreport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// IsEligible reports whether name ends with suffix. The comparison is
// case-sensitive; a suffix longer than name is simply not a match.
func IsEligible(name, suffix string) bool {
	return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
}

// Report describes one crash report on disk.
type Report struct {
	Name       string
	Path       string
	Size       int64
	ModTime    time.Time
	AccessTime time.Time
	Seen       bool
}

// Stat returns the report at path.
func Stat(path string) (Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Report{}, err
	}
	if info.IsDir() {
		return Report{}, fmt.Errorf("%s: is a directory", path)
	}
	atime := accessTime(path, info)
	return Report{
		Name:       info.Name(),
		Path:       path,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		AccessTime: atime,
		Seen:       seen(info.Size(), atime, info.ModTime()),
	}, nil
}

// Seen reports whether the report at path was already processed.
func Seen(path string) (bool, error) {
	report, err := Stat(path)
	if err != nil {
		return false, err
	}
	return report.Seen, nil
}

func seen(size int64, atime, mtime time.Time) bool {
	return size == 0 || atime.After(mtime)
}

// MarkSeen moves the access time past the modification time. The
// modification time is preserved.
func MarkSeen(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mtime := info.ModTime()
	if err := os.Chtimes(path, mtime.Add(time.Second), mtime); err != nil {
		return fmt.Errorf("mark %s seen: %w", path, err)
	}
	return nil
}

// List returns the eligible reports in dir ordered by modification time,
// oldest first. Entries that vanish while listing are skipped.
func List(dir, suffix string) ([]Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var reports []Report
	for _, entry := range entries {
		if entry.IsDir() || !IsEligible(entry.Name(), suffix) {
			continue
		}
		report, err := Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		reports = append(reports, report)
	}

	slices.SortStableFunc(reports, func(a, b Report) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return reports, nil
}

// Unseen filters reports down to those not yet processed.
func Unseen(reports []Report) []Report {
	var out []Report
	for _, r := range reports {
		if !r.Seen {
			out = append(out, r)
		}
	}
	return out
}
