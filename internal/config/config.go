// Package config binds the process's environment variables (§6.6)
// through viper, giving the rest of the program typed, defaulted
// access instead of scattering os.Getenv calls.
package config

import "github.com/spf13/viper"

// Config is the resolved set of environment-driven settings.
type Config struct {
	// SessionDBURL is the database URL for the session store (§4.5,
	// §6.5). Empty disables persistence and forces the in-memory
	// fallback store.
	SessionDBURL string

	// DisableHeartbeat suppresses the one-shot startup notification
	// when true (§6.1).
	DisableHeartbeat bool

	// DebugBoot emits a startup debug marker line when true (§6.6).
	DebugBoot bool

	// TestPort optionally names a real serial device for hardware-
	// backed tests (§6.6); empty means no hardware test port is
	// configured.
	TestPort string
}

// Load reads the environment into a Config, applying the documented
// defaults (e.g. SESSION_DB_URL defaults to sqlite://sessions.db, §6.5).
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("SESSION_DB_URL", "sqlite://sessions.db")
	v.SetDefault("MCP_DISABLE_HEARTBEAT", false)
	v.SetDefault("MCP_DEBUG_BOOT", false)
	v.SetDefault("SERIAL_TEST_PORT", "")

	return Config{
		SessionDBURL:     v.GetString("SESSION_DB_URL"),
		DisableHeartbeat: v.GetString("MCP_DISABLE_HEARTBEAT") == "1" || v.GetBool("MCP_DISABLE_HEARTBEAT"),
		DebugBoot:        v.GetString("MCP_DEBUG_BOOT") == "1" || v.GetBool("MCP_DEBUG_BOOT"),
		TestPort:         v.GetString("SERIAL_TEST_PORT"),
	}
}
