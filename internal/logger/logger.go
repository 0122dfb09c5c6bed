package logger

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// New builds a logger for the given textual level. Callers receive their own
// instance and pass it down explicitly; there is no package-level singleton.
func New(level string) *Logger {
	return newZapLogger(level)
}
