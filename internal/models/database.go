package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/sitedesk/backend/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the database used by the backend.
var DB *gorm.DB

// Connect opens the database, migrates the schema and registers the error
// translation callbacks.
//
// When DB_HOST is configured, PostgreSQL is used. Otherwise the backend runs
// on a sqlite database at sqlitePath.
func Connect(sqlitePath string) error {
	gormConfig := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{
			Logger: log.Logger,
		},
	}

	var db *gorm.DB
	var err error

	if config.AppConfig.DBHost != "" {
		log.Debug().Msg("DB_HOST is set, using PostgreSQL")

		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
			config.AppConfig.DBHost, config.AppConfig.DBPort, config.AppConfig.DBUser,
			config.AppConfig.DBPassword, config.AppConfig.DBName)

		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := migrate(db); err != nil {
			return err
		}
	} else {
		log.Debug().Msg("DB_HOST is not set, using sqlite database")

		// Migration runs with foreign keys disabled: sqlite does not support
		// ALTER COLUMN, so schema changes copy tables to a temporary table,
		// drop and recreate
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := migrate(db); err != nil {
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database object: %w", err)
		}
		sqlDB.Close()

		// Reconnect with foreign keys enabled so that the allocation and
		// audit cascades are enforced
		db, err = gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", sqlitePath)), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err = db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database object: %w", err)
		}

		// Get new connections after one hour
		sqlDB.SetConnMaxLifetime(time.Hour)

		// A single connection prevents SQLITE_BUSY errors and serializes
		// writers on sqlite. PostgreSQL deployments rely on the row locks
		// the allocation engine takes.
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	// Query callbacks
	err = db.Callback().Query().After("*").Register("sitedesk:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("sitedesk:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	// Create callbacks
	err = db.Callback().Create().After("*").Register("sitedesk:after_create", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("sitedesk:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	// Update callbacks
	err = db.Callback().Update().After("*").Register("sitedesk:after_update", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("sitedesk:after_update_general", generalCallback)
	if err != nil {
		return err
	}

	// Delete callbacks
	err = db.Callback().Delete().After("*").Register("sitedesk:after_delete_general", generalCallback)
	if err != nil {
		return err
	}

	DB = db

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		// and replace "_" with "[space]"
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")

		// Replace pluralized "ies" with "y"
		match := regexp.MustCompile("ies$")
		name = match.ReplaceAllString(name, "y")

		// Remove plural "s"
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	msg := db.Error.Error()

	// At most one allocation per (project, manager) pair
	if strings.Contains(msg, "UNIQUE constraint failed: allocations.project_id, allocations.user_id") ||
		strings.Contains(msg, `unique constraint "allocation_project_user"`) {
		db.Error = ErrAllocationExists
	}

	// Usernames are unique
	if strings.Contains(msg, "UNIQUE constraint failed: users.username") ||
		strings.Contains(msg, `unique constraint "idx_users_username"`) {
		db.Error = ErrUsernameNotUnique
	}

	// A reference points to a resource that does not exist
	if strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint") {
		db.Error = ErrInvalidResourceReference
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module, see
	// https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=1298;drc=0d018b49e33b1383dc0ae5cc968e800dffeeaf7d
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral

		return
	}
}

// migrate migrates all models to the schema defined in the code.
//
// This runs once at startup. The original system created the audit table
// lazily on every request; that bootstrap now lives here, with
// EnsureAuditSchema remaining as the idempotent fallback.
func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(User{}, Project{}, Allocation{}, AllocationAudit{}, Expense{})
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}

// EnsureAuditSchema creates the audit ledger's storage if it is missing.
//
// It is safe to call at any time: it never touches an existing table and
// therefore never destroys entries.
func EnsureAuditSchema(db *gorm.DB) error {
	if db.Migrator().HasTable(&AllocationAudit{}) {
		return nil
	}

	return db.AutoMigrate(&AllocationAudit{})
}
