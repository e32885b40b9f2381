package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Schedule is a user-owned playback schedule. Wall-clock fields are
// interpreted in Timezone; the engine only ever writes LastTriggeredUTC
// and OneShotTriggered.
type Schedule struct {
	ID               int        `db:"id"                 json:"id"`
	Owner            string     `db:"owner_spotify_id"   json:"owner_spotify_id"`
	PlaylistURI      string     `db:"playlist_uri"       json:"playlist_uri"`
	PlaylistName     *string    `db:"playlist_name"      json:"playlist_name"`
	DeviceID         string     `db:"target_device_id"   json:"target_device_id"`
	DeviceName       *string    `db:"target_device_name" json:"target_device_name"`
	DaysOfWeek       WeekdaySet `db:"days_of_week"       json:"days_of_week"`
	StartTimeLocal   ClockTime  `db:"start_time_local"   json:"start_time_local"`
	StopTimeLocal    *ClockTime `db:"stop_time_local"    json:"stop_time_local"`
	Timezone         string     `db:"timezone"           json:"timezone"`
	Volume           *int       `db:"volume"             json:"volume"`
	Shuffle          bool       `db:"shuffle_state"      json:"shuffle_state"`
	Active           bool       `db:"is_active"          json:"is_active"`
	OneShotTriggered bool       `db:"one_shot_triggered" json:"one_shot_triggered"`
	LastTriggeredUTC *time.Time `db:"last_triggered_utc" json:"last_triggered_utc"`
	CreatedAt        time.Time  `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"         json:"updated_at"`
}

// OneShot reports whether the schedule fires once on "today" (local) and
// then never again. An empty weekday set is the one-shot sentinel, not
// "never recurs".
func (s Schedule) OneShot() bool {
	return len(s.DaysOfWeek) == 0
}

// Location resolves the schedule's IANA timezone.
func (s Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return nil, fmt.Errorf("schedule %d: missing timezone", s.ID)
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: bad timezone %q: %w", s.ID, s.Timezone, err)
	}
	return loc, nil
}

// WeekdaySet is a set of weekdays (time.Weekday numbering, Sunday=0) stored
// as a comma-separated string, e.g. "1,3,5". The empty set marks a one-shot
// schedule.
type WeekdaySet []time.Weekday

// ParseWeekdaySet parses "1,3,5"; the empty string yields the empty set.
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := make(map[time.Weekday]bool)
	var out WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		d := time.Weekday(n)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (w WeekdaySet) Contains(d time.Weekday) bool {
	for _, v := range w {
		if v == d {
			return true
		}
	}
	return false
}

func (w WeekdaySet) String() string {
	if len(w) == 0 {
		return ""
	}
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

// Scan implements sql.Scanner.
func (w *WeekdaySet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		set, err := ParseWeekdaySet(v)
		if err != nil {
			return err
		}
		*w = set
		return nil
	case []byte:
		set, err := ParseWeekdaySet(string(v))
		if err != nil {
			return err
		}
		*w = set
		return nil
	}
	return fmt.Errorf("cannot scan %T into WeekdaySet", src)
}

// Value implements driver.Valuer.
func (w WeekdaySet) Value() (driver.Value, error) {
	return w.String(), nil
}

func (w WeekdaySet) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(w.String())), nil
}

func (w *WeekdaySet) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	set, err := ParseWeekdaySet(s)
	if err != nil {
		return err
	}
	*w = set
	return nil
}

// ClockTime is a wall-clock time of day ("HH:MM") with no date or offset,
// meaningful only relative to a schedule's timezone. The engine works at
// one-minute granularity, so seconds are never carried.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid wall-clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ClockTimeOf truncates an instant to its wall-clock minute.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Scan implements sql.Scanner.
func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		parsed, err := ParseClockTime(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into ClockTime", src)
}

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
