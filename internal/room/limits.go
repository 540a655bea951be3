// internal/room/limits.go
package room

// RoleLimits holds the inclusive bounds for each hidden role at a given
// room size.
type RoleLimits struct {
	MinZombie int `json:"minZombie"`
	MaxZombie int `json:"maxZombie"`
	MinMutant int `json:"minMutant"`
	MaxMutant int `json:"maxMutant"`
}

// roleLimits maps required player count to the allowed hidden-role ranges.
// Every supported room size must have an entry; a missing entry means the
// size is not creatable at all.
var roleLimits = map[int]RoleLimits{
	2: {MinZombie: 1, MaxZombie: 1, MinMutant: 0, MaxMutant: 0},
	3: {MinZombie: 1, MaxZombie: 1, MinMutant: 0, MaxMutant: 0},
	4: {MinZombie: 1, MaxZombie: 1, MinMutant: 0, MaxMutant: 1},
	5: {MinZombie: 1, MaxZombie: 2, MinMutant: 0, MaxMutant: 1},
	6: {MinZombie: 1, MaxZombie: 2, MinMutant: 0, MaxMutant: 1},
	7: {MinZombie: 1, MaxZombie: 2, MinMutant: 0, MaxMutant: 1},
	8: {MinZombie: 1, MaxZombie: 2, MinMutant: 0, MaxMutant: 1},
}

func (l RoleLimits) contains(zombie, mutant int) bool {
	return zombie >= l.MinZombie && zombie <= l.MaxZombie &&
		mutant >= l.MinMutant && mutant <= l.MaxMutant
}

// LimitsFor returns the role bounds for the given player count. The second
// return value is false for any count outside the supported range; callers
// must treat that as "no room can be created at this size", not as a default.
func LimitsFor(playerCount int) (RoleLimits, bool) {
	l, ok := roleLimits[playerCount]
	return l, ok
}
