package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"petalz/internal/config"
)

// StoredRoom is a row of the rooms table.
type StoredRoom struct {
	ID          string
	Name        string
	Description string
	NightlyRate string
	MinGuests   int
	MaxGuests   int
	IsActive    bool
}

// SyncRoomsFromConfig applies rooms.yaml to the database. It upserts rooms,
// marks rooms missing from the file inactive and replaces the config-sourced
// blocked dates. Admin-added blocked dates are left alone.
func (db *DB) SyncRoomsFromConfig(ctx context.Context, cfg *config.RoomsConfig) error {
	if cfg == nil {
		return fmt.Errorf("rooms config is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	seen := make(map[string]struct{}, len(cfg.Rooms))

	for i := range cfg.Rooms {
		room := &cfg.Rooms[i]
		_, err := tx.ExecContext(ctx, `
            INSERT INTO rooms (id, name, description, nightly_rate, min_guests, max_guests, is_active, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                description = excluded.description,
                nightly_rate = excluded.nightly_rate,
                min_guests = excluded.min_guests,
                max_guests = excluded.max_guests,
                is_active = excluded.is_active,
                updated_at = excluded.updated_at`,
			room.ID, room.Name, room.Description, room.Rate().String(),
			room.MinGuests, room.MaxGuests, room.IsActive, now, now,
		)
		if err != nil {
			return fmt.Errorf("sync room %s: %w", room.ID, err)
		}
		seen[room.ID] = struct{}{}
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM rooms`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `UPDATE rooms SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
			return fmt.Errorf("deactivate room %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocked_dates WHERE source = 'config'`); err != nil {
		return fmt.Errorf("clear config blocked dates: %w", err)
	}
	insert := `INSERT OR IGNORE INTO blocked_dates (room_id, date, reason, source) VALUES (?, ?, ?, 'config')`
	for _, b := range cfg.BlockedDates {
		if _, err := tx.ExecContext(ctx, insert, "", b.Date, b.Reason); err != nil {
			return fmt.Errorf("sync blocked date %s: %w", b.Date, err)
		}
	}
	for _, room := range cfg.Rooms {
		for _, date := range room.BlockedDates {
			if _, err := tx.ExecContext(ctx, insert, room.ID, date, ""); err != nil {
				return fmt.Errorf("sync room %s blocked date %s: %w", room.ID, date, err)
			}
		}
	}

	return tx.Commit()
}

// Rooms lists every stored room, active or not, ordered by id.
func (db *DB) Rooms(ctx context.Context) ([]StoredRoom, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT id, name, COALESCE(description, ''), nightly_rate, min_guests, max_guests, is_active
        FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRoom
	for rows.Next() {
		var r StoredRoom
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.NightlyRate, &r.MinGuests, &r.MaxGuests, &r.IsActive); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// roomExists reports whether id names a stored room.
func (db *DB) roomExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
