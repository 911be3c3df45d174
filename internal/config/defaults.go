package config

const (
	defaultWatchDir              = "/var/crash"
	defaultSuffix                = ".crash"
	defaultBufferEvents          = 10
	defaultSubscribeAttempts     = 5
	defaultSubscribeDelaySeconds = 1
	defaultReporterCommand       = "apport-bug"
	defaultGuardMode             = GuardModeBoth
	defaultProgramName           = "crashnotifyd"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Guard modes.
const (
	GuardModeProcess = "process"
	GuardModeLock    = "lock"
	GuardModeBoth    = "both"
)

// Environment variables consulted while normalizing the watch directory.
const (
	EnvWatchDir  = "CRASHNOTIFY_WATCH_DIR"
	EnvReportDir = "APPORT_REPORT_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Watch: Watch{
			Suffix:                defaultSuffix,
			Events:                []string{"close_write"},
			BufferEvents:          defaultBufferEvents,
			SubscribeAttempts:     defaultSubscribeAttempts,
			SubscribeDelaySeconds: defaultSubscribeDelaySeconds,
		},
		Reporter: Reporter{
			Command: defaultReporterCommand,
		},
		Guard: Guard{
			Mode:        defaultGuardMode,
			ProgramName: defaultProgramName,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			Syslog:    true,
			SyslogTag: defaultProgramName,
		},
	}
}
