package db

import "log"

// GetState returns the value stored under key.
// A missing key returns sql.ErrNoRows.
func (d *DB) GetState(key string) (string, error) {
	return WithLockResult(d, func() (string, error) {
		var value string
		err := d.db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
		if err != nil {
			return "", err
		}
		return value, nil
	})
}

// SetState stores value under key, replacing any previous value
func (d *DB) SetState(key, value string) error {
	return d.WithLock(func() error {
		_, err := d.db.Exec(`
			INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			log.Printf("[DB] Failed to set state key=%s err=%v", key, err)
		}
		return err
	})
}

// DeleteState removes key. Missing keys are not an error.
func (d *DB) DeleteState(key string) error {
	return d.WithLock(func() error {
		_, err := d.db.Exec(`DELETE FROM session_state WHERE key = ?`, key)
		return err
	})
}

// stateKeys returns every stored key in ascending order
func (d *DB) stateKeys() ([]string, error) {
	return WithLockResult(d, func() ([]string, error) {
		rows, err := d.db.Query(`SELECT key FROM session_state ORDER BY key`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var keys []string
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		return keys, rows.Err()
	})
}
