package portsvc

import "time"

// idleTripped implements the idle watchdog (C8) as a pure predicate,
// not a timer: it is evaluated at the start of every read(), so the
// watchdog only ever fires at an observation point (§4.7), which keeps
// behaviour deterministic under test — there is no background
// scheduler to race against.
func idleTripped(cfg Config, lastActivity, now time.Time) (bool, uint64) {
	if !cfg.HasIdleDisconnect || cfg.IdleDisconnectMs == 0 {
		return false, 0
	}
	idleMs := uint64(now.Sub(lastActivity) / time.Millisecond)
	return idleMs >= cfg.IdleDisconnectMs, idleMs
}
