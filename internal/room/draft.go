// internal/room/draft.go
package room

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinPlayers = 2
	MaxPlayers = 8

	MinTimerSec     = 10
	MaxTimerSec     = 300
	DefaultTimerSec = 30

	// UnlimitedSkillUsage is the sentinel for "no limit" on the doctor's
	// heal ability. It is re-pinned whenever the player count changes; it
	// is not directly editable from the creation form.
	UnlimitedSkillUsage = 9999
)

// Role identifies a hidden role with a configurable count.
type Role string

const (
	RoleZombie Role = "zombie"
	RoleMutant Role = "mutant"
)

// TimerField identifies one of the configurable phase timers.
type TimerField string

const (
	TimerNight         TimerField = "nightTimeSec"
	TimerDayDiscussion TimerField = "dayDisTimeSec"
)

// GameOption carries the per-match settings chosen at room creation.
type GameOption struct {
	Zombie           int `json:"zombie"`
	Mutant           int `json:"mutant"`
	DoctorSkillUsage int `json:"doctorSkillUsage"`
	NightTimeSec     int `json:"nightTimeSec"`
	DayDisTimeSec    int `json:"dayDisTimeSec"`
}

// RoomConfig is the finalized room configuration handed to the match engine.
// An empty Password means the room is public.
type RoomConfig struct {
	Title           string     `json:"title"`
	RequiredPlayers int        `json:"requiredPlayers"`
	Password        string     `json:"password,omitempty"`
	GameOption      GameOption `json:"gameOption"`
}

// Draft is an in-progress room configuration. Every mutation returns a new
// normalized draft, so role counts can never be left silently out of range
// for the chosen player count. Draft values are safe to copy and to apply
// concurrently; nothing is cached between operations.
type Draft struct {
	RoomConfig
}

// NewDraft returns the draft the creation form opens with.
func NewDraft() Draft {
	return Draft{RoomConfig{
		RequiredPlayers: 6,
		GameOption: GameOption{
			Zombie:           1,
			Mutant:           0,
			DoctorSkillUsage: UnlimitedSkillUsage,
			NightTimeSec:     DefaultTimerSec,
			DayDisTimeSec:    DefaultTimerSec,
		},
	}}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WithRequiredPlayers sets the player count and re-derives the dependent
// fields: zombie and mutant are clamped into the new limits and the doctor
// skill usage is pinned back to the unlimited sentinel. A count outside the
// supported range leaves the draft unchanged.
func (d Draft) WithRequiredPlayers(n int) Draft {
	if n < MinPlayers || n > MaxPlayers {
		return d
	}
	d.RequiredPlayers = n
	limits, ok := LimitsFor(n)
	if !ok {
		return d
	}
	d.GameOption.Zombie = clamp(d.GameOption.Zombie, limits.MinZombie, limits.MaxZombie)
	d.GameOption.Mutant = clamp(d.GameOption.Mutant, limits.MinMutant, limits.MaxMutant)
	d.GameOption.DoctorSkillUsage = UnlimitedSkillUsage
	return d
}

// WithRole stores a role count, clamped into the limits for the current
// player count. Out-of-range input is corrected rather than rejected; the
// form already exposes the bounds, clamping is the second line of defense.
// When no limits exist for the current player count the draft is unchanged.
func (d Draft) WithRole(role Role, value int) Draft {
	limits, ok := LimitsFor(d.RequiredPlayers)
	if !ok {
		return d
	}
	switch role {
	case RoleZombie:
		d.GameOption.Zombie = clamp(value, limits.MinZombie, limits.MaxZombie)
	case RoleMutant:
		d.GameOption.Mutant = clamp(value, limits.MinMutant, limits.MaxMutant)
	}
	return d
}

// WithTimerInput applies a timer edit while the field is still being typed
// in: unparsable text falls back to the default, everything else is clamped
// into range so intermediate keystrokes never store an out-of-band value.
func (d Draft) WithTimerInput(field TimerField, raw string) Draft {
	sec, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		sec = DefaultTimerSec
	}
	return d.setTimer(field, clamp(sec, MinTimerSec, MaxTimerSec))
}

// WithTimerCommit applies a timer value on leaving the field. Unlike the
// live edit, unparsable text and anything below the minimum both reset to
// the default rather than clamping to the minimum; only the upper bound is
// clamped. The asymmetry with WithTimerInput is deliberate.
func (d Draft) WithTimerCommit(field TimerField, raw string) Draft {
	sec, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || sec < MinTimerSec {
		sec = DefaultTimerSec
	}
	if sec > MaxTimerSec {
		sec = MaxTimerSec
	}
	return d.setTimer(field, sec)
}

func (d Draft) setTimer(field TimerField, sec int) Draft {
	switch field {
	case TimerNight:
		d.GameOption.NightTimeSec = sec
	case TimerDayDiscussion:
		d.GameOption.DayDisTimeSec = sec
	}
	return d
}

// WithTitle sets the room title as typed. Emptiness is checked at submit.
func (d Draft) WithTitle(title string) Draft {
	d.Title = title
	return d
}

// WithPassword sets the room password. Empty keeps the room public.
func (d Draft) WithPassword(password string) Draft {
	d.Password = password
	return d
}

// Valid reports whether the draft satisfies every room invariant. It is
// re-derived from the current field values on each call, never cached.
func (d Draft) Valid() bool {
	return d.validate() == nil
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidDraft)
	}
	limits, ok := LimitsFor(d.RequiredPlayers)
	if !ok {
		return fmt.Errorf("%w: unsupported player count %d", ErrInvalidDraft, d.RequiredPlayers)
	}
	if !limits.contains(d.GameOption.Zombie, d.GameOption.Mutant) {
		return fmt.Errorf("%w: role counts out of range for %d players", ErrInvalidDraft, d.RequiredPlayers)
	}
	for _, sec := range []int{d.GameOption.NightTimeSec, d.GameOption.DayDisTimeSec} {
		if sec < MinTimerSec || sec > MaxTimerSec {
			return fmt.Errorf("%w: timer %ds outside [%d,%d]", ErrInvalidDraft, sec, MinTimerSec, MaxTimerSec)
		}
	}
	return nil
}

// Submit returns the finalized configuration, or a validation error wrapping
// ErrInvalidDraft. Callers surface the error as a blocking prompt; nothing
// is partially submitted.
func (d Draft) Submit() (RoomConfig, error) {
	if err := d.validate(); err != nil {
		return RoomConfig{}, err
	}
	return d.RoomConfig, nil
}
