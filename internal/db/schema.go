package db

import "database/sql"

func Migrate(db *sql.DB) {
	db.Exec(`
	CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ref TEXT,
		user_id TEXT,
		action TEXT,
		metadata TEXT,
		created_at INTEGER
	);`)
}
