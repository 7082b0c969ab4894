package session

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open implements the §4.5 fallback policy: it attempts to open the
// SQLite database at dbURL, and on any failure logs a warning and
// returns an in-memory store instead. Persistence stays disabled for
// the remainder of the process; callers never see the open error.
//
// dbURL accepts the sqlite:// scheme named in §6.5 as well as a bare
// file path; both forms are passed through to the SQLite driver as a
// plain DSN. A busy-timeout pragma is appended so that other
// connections to the same file wait on a lock instead of failing
// immediately with SQLITE_BUSY. Ordering of this process's concurrent
// AppendMessage calls (§8 scenario 6) comes from NewGormStore capping
// the connection pool to one connection, since SQLite serializes
// writers at the file level, not the driver level.
func Open(dbURL string, log *logrus.Logger) Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dbURL == "" {
		log.Warn("session store: no database configured, using in-memory store")
		return NewMemStore()
	}
	dsn := strings.TrimPrefix(dbURL, "sqlite://")
	dsn += "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.WithError(err).Warn("session store: failed to open database, falling back to in-memory store")
		return NewMemStore()
	}
	store, err := NewGormStore(db)
	if err != nil {
		log.WithError(err).Warn("session store: schema migration failed, falling back to in-memory store")
		return NewMemStore()
	}
	return store
}
