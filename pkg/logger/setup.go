package logger

// SetupLogger installs a default logger for the given settings and returns it.
func SetupLogger(level LogLevel, logJSON, logSource bool) Logger {
	Init(&Config{
		Level:      level,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	})
	return GetDefault()
}
