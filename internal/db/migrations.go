package db

// Migrate creates the schema and applies column upgrades
func (d *DB) Migrate() error {
	return d.WithLock(func() error {
		_, err := d.db.Exec(`
			CREATE TABLE IF NOT EXISTS session_state (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}

		return d.migrateSessionStateUpdatedAt()
	})
}

// migrateSessionStateUpdatedAt adds updated_at to databases created before it existed
func (d *DB) migrateSessionStateUpdatedAt() error {
	rows, err := d.db.Query("PRAGMA table_info(session_state)")
	if err != nil {
		return err
	}

	columnExists := false
	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var defaultValue any
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			rows.Close()
			return err
		}
		if name == "updated_at" {
			columnExists = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if columnExists {
		return nil
	}

	// SQLite rejects non-constant defaults in ALTER TABLE, so existing rows get NULL
	_, err = d.db.Exec("ALTER TABLE session_state ADD COLUMN updated_at DATETIME")
	return err
}
