//go:build !windows && !plan9

package logging

import (
	"fmt"
	"log/syslog"
)

func dialSyslog(tag string) (syslogWriter, error) {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_NOTICE, tag)
	if err != nil {
		return nil, fmt.Errorf("connect to syslog: %w", err)
	}
	return w, nil
}
