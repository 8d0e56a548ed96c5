// Package sqlstore persists content, enrollments and progress with GORM.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database and migrates the schema
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: &gormLogger{slowThreshold: 200 * time.Millisecond},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer, and an in-memory database only lives as long as its connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(60 * time.Second)
		sqlDB.SetConnMaxLifetime(10 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database ready", "driver", driver)
	return db, nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CohortModel{}, &LessonModel{}, &EnrollmentModel{}, &ProgressModel{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLogger sends GORM's logs through the application logger
type gormLogger struct {
	slowThreshold time.Duration
	level         logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	log.Info(fmt.Sprintf(msg, args...), "component", "gorm")
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	log.Warn(fmt.Sprintf(msg, args...), "component", "gorm")
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	log.Error(fmt.Sprintf(msg, args...), "component", "gorm")
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		log.Error("Query failed", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		sql, rows := fc()
		log.Warn("Slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	default:
		sql, rows := fc()
		log.Trace("Query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
