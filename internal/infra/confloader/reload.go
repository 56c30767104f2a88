package confloader

import "log/slog"

// LogLevelKey is the key applied on configuration file changes.
const LogLevelKey = "log.level"

// LevelReloader returns a Watcher callback that re-reads the file and the
// environment and hands the resulting log.level to apply. apply reports
// whether the level was accepted.
func LevelReloader(envPrefix string, apply func(level string) bool, logger *slog.Logger) func(string) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(path string) {
		l := NewLoader(WithEnvPrefix(envPrefix))
		if err := l.LoadFile(path); err != nil {
			logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if err := l.LoadEnv(); err != nil {
			logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if !l.Exists(LogLevelKey) {
			return
		}
		level := l.String(LogLevelKey)
		if !apply(level) {
			logger.Warn("ignoring invalid log level from config", "level", level)
			return
		}
		logger.Info("log level reloaded", "level", level)
	}
}
