package session

// Store is the full operation set of C6 (§4.5). Both the GORM-backed
// implementation and the in-memory fallback satisfy it with identical
// observable semantics, per the fallback policy.
type Store interface {
	CreateSession(deviceID, portName string) (Session, error)
	AppendMessage(sessionID, role, content, direction, features string, latencyMs *int64) (Message, error)
	ListSessions(filter Filter, limit int) ([]Session, error)
	CloseSession(id string) error
	ListMessages(sessionID string, limit int) ([]Message, error)
	ListMessagesRange(sessionID string, afterID uint64, limit int) ([]Message, error)
	ExportSession(id string) (Session, []Message, error)
	FilterMessages(sessionID, role, direction, featureContains string, limit int) ([]Message, error)
	FeatureIndex(sessionID string) (map[string]int, error)
	SessionStats(id string) (Stats, error)

	// Close flushes and releases any resources the store holds. It is
	// called once, when the process shuts down, both after a clean EOF
	// (§6.7) and after a fatal transport error.
	Close() error
}

func applyLimit[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
