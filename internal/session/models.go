// Package session implements the persistent, append-only session and
// message log (C6): sessions and messages stored via GORM/SQLite, with
// a transparent in-memory fallback when the configured database can't
// be opened.
package session

import "time"

// Session is the persistent session record (§3).
type Session struct {
	ID        string `gorm:"primaryKey"`
	DeviceID  string `gorm:"index"`
	PortName  string
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Message is one append-only row in a session's transcript (§3). ID is
// strictly +1 per SessionID on every successful append (§5, §8).
type Message struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement:false"`
	SessionID  string `gorm:"primaryKey;index"`
	Role       string
	Direction  string
	Content    string
	Features   string
	LatencyMs  *int64
	CreatedAt  time.Time
}

// Stats is the derived aggregate returned by session_stats (§4.5).
type Stats struct {
	MessageCount  int
	FirstAt       *time.Time
	LastAt        *time.Time
	RatePerMinute float64
}

// Filter selects which sessions list_sessions returns (§4.5).
type Filter int

const (
	FilterAll Filter = iota
	FilterOpen
	FilterClosed
)
