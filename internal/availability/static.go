package availability

import (
	"context"
	"fmt"

	"petalz/internal/calendar"
	"petalz/internal/config"
)

// DenylistFromConfig builds a StaticDenylist from the room catalog.
func DenylistFromConfig(cfg *config.RoomsConfig) (StaticDenylist, error) {
	deny := StaticDenylist{ByRoom: make(map[string][]calendar.Date)}
	for _, b := range cfg.BlockedDates {
		d, err := calendar.ParseDate(b.Date)
		if err != nil {
			return StaticDenylist{}, fmt.Errorf("blocked date: %w", err)
		}
		deny.All = append(deny.All, d)
	}
	for _, room := range cfg.Rooms {
		for _, s := range room.BlockedDates {
			d, err := calendar.ParseDate(s)
			if err != nil {
				return StaticDenylist{}, fmt.Errorf("room %s blocked date: %w", room.ID, err)
			}
			deny.ByRoom[room.ID] = append(deny.ByRoom[room.ID], d)
		}
	}
	return deny, nil
}

// CatalogDenylist reads blocked dates from the live room catalog, so a
// reloaded rooms.yaml takes effect on the next fetch.
type CatalogDenylist struct {
	Catalog *config.Catalog
}

// BlockedDates implements Denylist.
func (d CatalogDenylist) BlockedDates(ctx context.Context, room string, from, to calendar.Date) ([]calendar.Date, error) {
	deny, err := DenylistFromConfig(d.Catalog.Get())
	if err != nil {
		return nil, err
	}
	return deny.BlockedDates(ctx, room, from, to)
}
