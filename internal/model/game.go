package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// SportType enumerates the sports the marketplace lists games for.
type SportType string

const (
	SportFootball   SportType = "Football"
	SportBasketball SportType = "Basketball"
	SportHockey     SportType = "Hockey"
)

// ParseSportType accepts any casing of the three known sports.
func ParseSportType(s string) (SportType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "football":
		return SportFootball, nil
	case "basketball":
		return SportBasketball, nil
	case "hockey":
		return SportHockey, nil
	}
	return "", fmt.Errorf("invalid sport type %q", s)
}

// Value stores the lowercase form, matching the games.sport_type column.
func (s SportType) Value() (driver.Value, error) { return strings.ToLower(string(s)), nil }

// Scan maps the stored lowercase value back to the canonical capitalized form.
func (s *SportType) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into SportType", src)
	}
	parsed, err := ParseSportType(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Game mirrors the `games` table. CutoffTime is the moment trading closes:
// listings and reservations are refused at or after it, and the public
// listing only returns games whose cutoff is still in the future.
type Game struct {
	ID         string    `json:"id"`
	SportType  SportType `json:"sport_type"`
	Name       string    `json:"name"`
	GameTime   time.Time `json:"game_time"`
	CutoffTime time.Time `json:"cutoff_time"`
}
