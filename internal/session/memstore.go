package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is the in-memory fallback used when the configured
// persistent store cannot be opened (§4.5). It implements Store with
// identical semantics, including the strict per-session append
// ordering (§5, §8).
type MemStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	messages  map[string][]Message // sessionID -> ordered messages
	nextID    map[string]uint64
	sessOrder []string
	now       func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]*Session),
		messages: make(map[string][]Message),
		nextID:   make(map[string]uint64),
		now:      time.Now,
	}
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) CreateSession(deviceID, portName string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		PortName:  portName,
		CreatedAt: m.now(),
	}
	m.sessions[s.ID] = &s
	m.sessOrder = append(m.sessOrder, s.ID)
	return s, nil
}

func (m *MemStore) AppendMessage(sessionID, role, content, direction, features string, latencyMs *int64) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return Message{}, ErrSessionNotFound
	}
	id := m.nextID[sessionID] + 1
	m.nextID[sessionID] = id
	msg := Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Direction: direction,
		Content:   content,
		Features:  features,
		LatencyMs: latencyMs,
		CreatedAt: m.now(),
	}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return msg, nil
}

func (m *MemStore) ListSessions(filter Filter, limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, id := range m.sessOrder {
		s := *m.sessions[id]
		switch filter {
		case FilterOpen:
			if s.ClosedAt != nil {
				continue
			}
		case FilterClosed:
			if s.ClosedAt == nil {
				continue
			}
		}
		out = append(out, s)
	}
	return applyLimit(out, limit), nil
}

func (m *MemStore) CloseSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.ClosedAt == nil {
		now := m.now()
		s.ClosedAt = &now
	}
	return nil
}

func (m *MemStore) ListMessages(sessionID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	out := append([]Message(nil), m.messages[sessionID]...)
	return applyLimit(out, limit), nil
}

func (m *MemStore) ListMessagesRange(sessionID string, afterID uint64, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	var out []Message
	for _, msg := range m.messages[sessionID] {
		if msg.ID > afterID {
			out = append(out, msg)
		}
	}
	return applyLimit(out, limit), nil
}

func (m *MemStore) ExportSession(id string) (Session, []Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, nil, ErrSessionNotFound
	}
	return *s, append([]Message(nil), m.messages[id]...), nil
}

func (m *MemStore) FilterMessages(sessionID, role, direction, featureContains string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	var out []Message
	for _, msg := range m.messages[sessionID] {
		if role != "" && msg.Role != role {
			continue
		}
		if direction != "" && msg.Direction != direction {
			continue
		}
		if featureContains != "" && !strings.Contains(msg.Features, featureContains) {
			continue
		}
		out = append(out, msg)
	}
	return applyLimit(out, limit), nil
}

func (m *MemStore) FeatureIndex(sessionID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	idx := make(map[string]int)
	for _, msg := range m.messages[sessionID] {
		for _, tok := range featureTokens(msg.Features) {
			idx[tok]++
		}
	}
	return idx, nil
}

func (m *MemStore) SessionStats(id string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return Stats{}, ErrSessionNotFound
	}
	msgs := m.messages[id]
	stats := Stats{MessageCount: len(msgs)}
	if len(msgs) == 0 {
		return stats, nil
	}
	first := msgs[0].CreatedAt
	last := msgs[len(msgs)-1].CreatedAt
	stats.FirstAt = &first
	stats.LastAt = &last
	span := last.Sub(first).Minutes()
	if span > 0 {
		stats.RatePerMinute = float64(len(msgs)) / span
	}
	return stats, nil
}

// Close is a no-op: MemStore holds no external resource to release.
func (m *MemStore) Close() error {
	return nil
}
