package infra

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cloudcopper/bcx/ports"
	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // purego sqlite3 driver
)

const (
	DriverSqlite         = "sqlite"
	SourceSqliteInMemory = "file::memory:?cache=shared&_pragma=foreign_keys(1)"
)

// SourceSqliteMemory returns source of named in-memory database.
// Connections with the same name share the database.
func SourceSqliteMemory(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
}

// SourceSqliteFile returns source of file backed sqlite database
func SourceSqliteFile(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
}

func NewDatabase(log ports.Logger, driver, source string) (ports.DB, func(), error) {
	sqlDB, err := sql.Open(driver, source)
	if err != nil {
		return nil, nil, err
	}
	// sqlite does not like concurrent writers
	sqlDB.SetMaxOpenConns(1)

	dbLogger := slogGorm.New(
		slogGorm.WithHandler(log.Handler()),
		slogGorm.WithSlowThreshold(500*time.Millisecond),
	)
	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	return db, func() { sqlDB.Close() }, nil
}
