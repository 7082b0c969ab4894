// Package applog configures the process-wide structured logger (§0.1,
// §6.6): logrus, level taken from SERIAL_LOG_LEVEL with a fallback to
// RUST_LOG for compatibility with the environment the original tooling
// assumed, and an optional debug-boot marker line.
package applog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger writing structured text to stderr (so
// stdout stays reserved for the JSON-RPC transport), with its level
// resolved from the environment.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(levelFromEnv())
	return log
}

// levelFromEnv reads SERIAL_LOG_LEVEL, falling back to RUST_LOG, and
// defaults to info when neither is set or the value doesn't parse.
func levelFromEnv() logrus.Level {
	raw := os.Getenv("SERIAL_LOG_LEVEL")
	if raw == "" {
		raw = os.Getenv("RUST_LOG")
	}
	if raw == "" {
		return logrus.InfoLevel
	}
	lvl, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// LogDebugBoot emits the §6.6 debug marker line when MCP_DEBUG_BOOT is
// set. The line is logged at info level, so it appears at the default
// log level.
func LogDebugBoot(log *logrus.Logger) {
	if os.Getenv("MCP_DEBUG_BOOT") == "" {
		return
	}
	log.Info("boot: serialmcpd starting")
}
