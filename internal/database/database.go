package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func Initialize(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func Migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			email TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS characters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT UNIQUE NOT NULL,
			class TEXT NOT NULL,
			roles TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			boss_name TEXT NOT NULL,
			raid_instance TEXT NOT NULL,
			slot_type TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS raids (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			raid_instance TEXT NOT NULL,
			title TEXT,
			raid_date TEXT NOT NULL,
			raid_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Open',
			points_settled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS signups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			character_id INTEGER NOT NULL,
			raid_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
			FOREIGN KEY (raid_id) REFERENCES raids(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			signup_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			PRIMARY KEY (signup_id, item_id),
			FOREIGN KEY (signup_id) REFERENCES signups(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS loot_points (
			character_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (character_id, item_id),
			FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS wishlist (
			character_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			priority INTEGER NOT NULL,
			PRIMARY KEY (character_id, item_id),
			FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			action TEXT NOT NULL,
			details TEXT NOT NULL,
			raid_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS csrf_tokens (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_characters_user_id ON characters(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_raid_instance ON items(raid_instance)`,
		`CREATE INDEX IF NOT EXISTS idx_signups_raid_id ON signups(raid_id)`,
		`CREATE INDEX IF NOT EXISTS idx_signups_character_id ON signups(character_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_item_id ON reservations(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_raid_id ON logs(raid_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_csrf_tokens_user_id ON csrf_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_csrf_tokens_expires_at ON csrf_tokens(expires_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
