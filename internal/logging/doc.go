// Package logging assembles the structured slog loggers used by crashnotifyd.
//
// Records fan out to up to three sinks: the local syslog daemon, a console or
// JSON stream (stdout in foreground mode) and an optional log file. A NOTICE
// level sits between info and warn so dispatch records map onto LOG_NOTICE.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
