package session

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore persists sessions and messages via GORM. Message ID
// assignment runs inside a transaction that reads the session's
// current max ID and inserts at max+1. NewGormStore caps the pool at
// one connection, so concurrent AppendMessage callers on the same
// session queue for that connection and each transaction sees the
// previous one's insert (§5, §8).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns a Store backed by db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Session{}, &Message{}); err != nil {
		return nil, newError("schema migration failed", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, newError("database handle unavailable", err)
	}
	// mattn/go-sqlite3 serializes writers at the file level, not the
	// driver level: a second pooled connection attempting a write
	// transaction while the first holds one fails with SQLITE_BUSY
	// regardless of the busy-timeout pragma. Capping the pool at one
	// connection forces concurrent AppendMessage callers to queue on
	// this process's own connection instead of racing at the SQLite
	// level (§8 scenario 6).
	sqlDB.SetMaxOpenConns(1)
	return &GormStore{db: db}, nil
}

var _ Store = (*GormStore)(nil)

// Close releases the underlying database connection (§6.7 clean
// shutdown: the session store is flushed before the process exits).
func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return newError("database handle unavailable", err)
	}
	if err := sqlDB.Close(); err != nil {
		return newError("close database failed", err)
	}
	return nil
}

func (g *GormStore) CreateSession(deviceID, portName string) (Session, error) {
	s := Session{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		PortName: portName,
	}
	if err := g.db.Create(&s).Error; err != nil {
		return Session{}, newError("create session failed", err)
	}
	return s, nil
}

func (g *GormStore) AppendMessage(sessionID, role, content, direction, features string, latencyMs *int64) (Message, error) {
	var msg Message
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var sess Session
		if err := tx.First(&sess, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		var maxID uint64
		if err := tx.Model(&Message{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(id), 0)").
			Scan(&maxID).Error; err != nil {
			return err
		}
		msg = Message{
			ID:        maxID + 1,
			SessionID: sessionID,
			Role:      role,
			Direction: direction,
			Content:   content,
			Features:  features,
			LatencyMs: latencyMs,
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Message{}, ErrSessionNotFound
		}
		return Message{}, newError("append message failed", err)
	}
	return msg, nil
}

func (g *GormStore) ListSessions(filter Filter, limit int) ([]Session, error) {
	q := g.db.Model(&Session{}).Order("created_at asc")
	switch filter {
	case FilterOpen:
		q = q.Where("closed_at IS NULL")
	case FilterClosed:
		q = q.Where("closed_at IS NOT NULL")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Session
	if err := q.Find(&out).Error; err != nil {
		return nil, newError("list sessions failed", err)
	}
	return out, nil
}

func (g *GormStore) CloseSession(id string) error {
	var sess Session
	if err := g.db.First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return newError("close session failed", err)
	}
	if sess.ClosedAt != nil {
		return nil
	}
	if err := g.db.Model(&Session{}).Where("id = ?", id).
		Update("closed_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		return newError("close session failed", err)
	}
	return nil
}

func (g *GormStore) mustSessionExist(id string) error {
	var count int64
	if err := g.db.Model(&Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return newError("lookup session failed", err)
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (g *GormStore) ListMessages(sessionID string, limit int) ([]Message, error) {
	if err := g.mustSessionExist(sessionID); err != nil {
		return nil, err
	}
	q := g.db.Model(&Message{}).Where("session_id = ?", sessionID).Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Message
	if err := q.Find(&out).Error; err != nil {
		return nil, newError("list messages failed", err)
	}
	return out, nil
}

func (g *GormStore) ListMessagesRange(sessionID string, afterID uint64, limit int) ([]Message, error) {
	if err := g.mustSessionExist(sessionID); err != nil {
		return nil, err
	}
	q := g.db.Model(&Message{}).
		Where("session_id = ? AND id > ?", sessionID, afterID).
		Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Message
	if err := q.Find(&out).Error; err != nil {
		return nil, newError("list messages range failed", err)
	}
	return out, nil
}

func (g *GormStore) ExportSession(id string) (Session, []Message, error) {
	var sess Session
	if err := g.db.First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, nil, ErrSessionNotFound
		}
		return Session{}, nil, newError("export session failed", err)
	}
	var msgs []Message
	if err := g.db.Model(&Message{}).Where("session_id = ?", id).Order("id asc").Find(&msgs).Error; err != nil {
		return Session{}, nil, newError("export session failed", err)
	}
	return sess, msgs, nil
}

func (g *GormStore) FilterMessages(sessionID, role, direction, featureContains string, limit int) ([]Message, error) {
	if err := g.mustSessionExist(sessionID); err != nil {
		return nil, err
	}
	q := g.db.Model(&Message{}).Where("session_id = ?", sessionID).Order("id asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if direction != "" {
		q = q.Where("direction = ?", direction)
	}
	if featureContains != "" {
		q = q.Where("instr(features, ?) > 0", featureContains)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Message
	if err := q.Find(&out).Error; err != nil {
		return nil, newError("filter messages failed", err)
	}
	return out, nil
}

func (g *GormStore) FeatureIndex(sessionID string) (map[string]int, error) {
	if err := g.mustSessionExist(sessionID); err != nil {
		return nil, err
	}
	var msgs []Message
	if err := g.db.Model(&Message{}).Where("session_id = ?", sessionID).Find(&msgs).Error; err != nil {
		return nil, newError("feature index failed", err)
	}
	idx := make(map[string]int)
	for _, msg := range msgs {
		for _, tok := range featureTokens(msg.Features) {
			idx[tok]++
		}
	}
	return idx, nil
}

func (g *GormStore) SessionStats(id string) (Stats, error) {
	if err := g.mustSessionExist(id); err != nil {
		return Stats{}, err
	}
	var msgs []Message
	if err := g.db.Model(&Message{}).Where("session_id = ?", id).Order("id asc").Find(&msgs).Error; err != nil {
		return Stats{}, newError("session stats failed", err)
	}
	stats := Stats{MessageCount: len(msgs)}
	if len(msgs) == 0 {
		return stats, nil
	}
	first := msgs[0].CreatedAt
	last := msgs[len(msgs)-1].CreatedAt
	stats.FirstAt = &first
	stats.LastAt = &last
	if span := last.Sub(first).Minutes(); span > 0 {
		stats.RatePerMinute = float64(len(msgs)) / span
	}
	return stats, nil
}
