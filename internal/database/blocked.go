package database

import (
	"context"
	"errors"
	"fmt"

	"petalz/internal/calendar"
	"petalz/internal/config"
)

var (
	// ErrAlreadyBlocked is returned when the date is already on the denylist.
	ErrAlreadyBlocked = errors.New("date already blocked")
	// ErrNotBlocked is returned when removing a date that is not blocked.
	ErrNotBlocked = errors.New("date not blocked")
)

// BlockedDate is one denylist entry. An empty Room blocks every room.
type BlockedDate struct {
	ID     int64         `json:"id"`
	Room   string        `json:"room,omitempty"`
	Date   calendar.Date `json:"date"`
	Reason string        `json:"reason,omitempty"`
	Source string        `json:"source"`
}

// BlockedDates implements availability.Denylist: dates in [from, to]
// blocked for room or for every room.
func (db *DB) BlockedDates(ctx context.Context, room string, from, to calendar.Date) ([]calendar.Date, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT DISTINCT date FROM blocked_dates
        WHERE (room_id = '' OR room_id = ?) AND date BETWEEN ? AND ?
        ORDER BY date`, room, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query blocked dates: %w", err)
	}
	defer rows.Close()

	var out []calendar.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("stored blocked date %q: %w", s, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListBlockedDates returns every entry ordered by date.
func (db *DB) ListBlockedDates(ctx context.Context) ([]BlockedDate, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT id, room_id, date, COALESCE(reason, ''), source
        FROM blocked_dates ORDER BY date, room_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockedDate
	for rows.Next() {
		var (
			b    BlockedDate
			date string
		)
		if err := rows.Scan(&b.ID, &b.Room, &date, &b.Reason, &b.Source); err != nil {
			return nil, err
		}
		if b.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored blocked date %q: %w", date, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBlockedDate blocks date for room ("" for every room).
func (db *DB) AddBlockedDate(ctx context.Context, room string, date calendar.Date, reason string) (*BlockedDate, error) {
	if room != "" {
		ok, err := db.roomExists(ctx, room)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownRoom, room)
		}
	}

	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blocked_dates (room_id, date, reason, source) VALUES (?, ?, ?, 'admin')`,
		room, date.String(), reason)
	if err != nil {
		return nil, fmt.Errorf("insert blocked date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrAlreadyBlocked, roomLabel(room), date)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &BlockedDate{ID: id, Room: room, Date: date, Reason: reason, Source: "admin"}, nil
}

// RemoveBlockedDate unblocks date for room.
func (db *DB) RemoveBlockedDate(ctx context.Context, room string, date calendar.Date) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM blocked_dates WHERE room_id = ? AND date = ?`, room, date.String())
	if err != nil {
		return fmt.Errorf("delete blocked date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotBlocked, roomLabel(room), date)
	}
	return nil
}

func roomLabel(room string) string {
	if room == "" {
		return "all rooms"
	}
	return room
}
