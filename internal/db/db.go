package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// OpenMemory opens a private in-memory database. It lives as long as the
// returned handle, so nothing outlives the process.
func OpenMemory() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:servodash-%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// every connection to a memory database sees its own copy unless shared;
	// a single connection keeps the cache alive and serialises access
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA temp_store=MEMORY;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS measurements (
			seq INTEGER PRIMARY KEY,
			time_str TEXT NOT NULL,
			date_str TEXT NOT NULL,
			servo1_angle REAL NOT NULL,
			servo2_angle REAL NOT NULL,
			servo3_angle REAL NOT NULL,
			servo1_angle_percent REAL NOT NULL,
			servo2_angle_percent REAL NOT NULL,
			servo3_angle_percent REAL NOT NULL,
			pot1_percent REAL NOT NULL,
			pot2_percent REAL NOT NULL,
			pot3_percent REAL NOT NULL,
			pot1_raw INTEGER NOT NULL,
			pot2_raw INTEGER NOT NULL,
			pot3_raw INTEGER NOT NULL,
			servo1_pwm INTEGER NOT NULL,
			servo2_pwm INTEGER NOT NULL,
			servo3_pwm INTEGER NOT NULL,
			servo1_active INTEGER NOT NULL,
			servo2_active INTEGER NOT NULL,
			servo3_active INTEGER NOT NULL,
			button_pressed INTEGER NOT NULL,
			led_state INTEGER NOT NULL,
			servos_active_count INTEGER NOT NULL,
			present_keys TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}
