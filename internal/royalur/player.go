package royalur

import "fmt"

// Player identifies one of the two sides. The zero value names nobody
// and is how an empty board cell and a missing winner are expressed.
type Player int

const (
	NoPlayer  Player = 0
	PlayerOne Player = 1
	PlayerTwo Player = 2
)

func (that Player) Opponent() Player {
	switch that {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		return NoPlayer
	}
}

// Valid reports whether the value names an actual side.
func (that Player) Valid() bool {
	return that == PlayerOne || that == PlayerTwo
}

func (that Player) String() string {
	if !that.Valid() {
		return "nobody"
	}
	return fmt.Sprintf("player %d", int(that))
}
