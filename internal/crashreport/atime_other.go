//go:build !linux

package crashreport

import (
	"io/fs"
	"time"
)

func accessTime(_ string, info fs.FileInfo) time.Time {
	return statAccessTime(info)
}
