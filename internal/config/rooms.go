package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrUnknownRoom is returned for a room id that is not in the catalog.
var ErrUnknownRoom = errors.New("unknown room")

// RoomConfig is one bookable room category.
type RoomConfig struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	NightlyRate  string   `yaml:"nightly_rate"` // NGN, e.g. "35000"
	MinGuests    int      `yaml:"min_guests"`
	MaxGuests    int      `yaml:"max_guests"`
	Features     []string `yaml:"features"`
	BlockedDates []string `yaml:"blocked_dates"`
	IsActive     bool     `yaml:"is_active"`

	rate decimal.Decimal
}

// Rate returns the parsed nightly rate.
func (r RoomConfig) Rate() decimal.Decimal {
	return r.rate
}

// BlockedDateConfig is a date unavailable for every room.
type BlockedDateConfig struct {
	Date   string `yaml:"date"`
	Reason string `yaml:"reason"`
}

// RoomsConfig is the root of rooms.yaml.
type RoomsConfig struct {
	Currency     string              `yaml:"currency"`
	Rooms        []RoomConfig        `yaml:"rooms"`
	BlockedDates []BlockedDateConfig `yaml:"blocked_dates"`
}

// LoadRoomsConfig loads and validates the room catalog.
func LoadRoomsConfig(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}

	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks the catalog and parses rates.
func (c *RoomsConfig) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("no rooms defined")
	}

	ids := make(map[string]bool)
	for i := range c.Rooms {
		room := &c.Rooms[i]
		if room.ID == "" {
			return fmt.Errorf("room[%d]: id is required", i)
		}
		if ids[room.ID] {
			return fmt.Errorf("room[%d]: duplicate id '%s'", i, room.ID)
		}
		ids[room.ID] = true

		if room.Name == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}

		rate, err := decimal.NewFromString(room.NightlyRate)
		if err != nil {
			return fmt.Errorf("room[%d]: invalid nightly_rate '%s'", i, room.NightlyRate)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("room[%d]: nightly_rate must be positive", i)
		}
		room.rate = rate

		if room.MinGuests < 0 || room.MaxGuests < 0 {
			return fmt.Errorf("room[%d]: guest counts cannot be negative", i)
		}
		if room.MaxGuests > 0 && room.MinGuests > room.MaxGuests {
			return fmt.Errorf("room[%d]: min_guests exceeds max_guests", i)
		}

		for j, d := range room.BlockedDates {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return fmt.Errorf("room[%d].blocked_dates[%d]: invalid date format '%s', expected YYYY-MM-DD", i, j, d)
			}
		}
	}

	for i, b := range c.BlockedDates {
		if b.Date == "" {
			return fmt.Errorf("blocked_dates[%d]: date is required", i)
		}
		if _, err := time.Parse("2006-01-02", b.Date); err != nil {
			return fmt.Errorf("blocked_dates[%d]: invalid date format '%s', expected YYYY-MM-DD", i, b.Date)
		}
	}

	return nil
}

func (c *RoomsConfig) applyDefaults() {
	if c.Currency == "" {
		c.Currency = "NGN"
	}
	for i := range c.Rooms {
		if c.Rooms[i].MinGuests == 0 {
			c.Rooms[i].MinGuests = 1
		}
		if c.Rooms[i].MaxGuests == 0 {
			c.Rooms[i].MaxGuests = c.Rooms[i].MinGuests
		}
	}
}

// Room returns the active room with id.
func (c *RoomsConfig) Room(id string) (*RoomConfig, error) {
	for i := range c.Rooms {
		if c.Rooms[i].ID == id && c.Rooms[i].IsActive {
			return &c.Rooms[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRoom, id)
}

// ActiveRooms returns only active rooms.
func (c *RoomsConfig) ActiveRooms() []RoomConfig {
	result := make([]RoomConfig, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		if r.IsActive {
			result = append(result, r)
		}
	}
	return result
}

// String returns a summary of the catalog.
func (c *RoomsConfig) String() string {
	return fmt.Sprintf("RoomsConfig: %d rooms (%d active), %d blocked dates",
		len(c.Rooms), len(c.ActiveRooms()), len(c.BlockedDates))
}
