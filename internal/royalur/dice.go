package royalur

import (
	"math/rand"
	"time"
)

// DiceCount is the number of binary dice thrown per roll.
const DiceCount = 4

// DiceRoller produces the step count for one turn, a value in
// [0, DiceCount]. The game never rolls on its own; whoever embeds it
// decides when, which also makes scripted rolls in tests trivial.
type DiceRoller interface {
	Roll() int
}

// binaryDiceRoller throws four independent two-sided dice and counts
// the marked faces, giving the 1:4:6:4:1 distribution of the historical
// tetrahedral dice.
type binaryDiceRoller struct {
	rng *rand.Rand
}

func NewDiceRoller() DiceRoller {
	return NewSeededDiceRoller(time.Now().UnixNano())
}

// NewSeededDiceRoller returns a roller with a fixed seed, for
// reproducible games.
func NewSeededDiceRoller(seed int64) DiceRoller {
	return &binaryDiceRoller{
		rng: rand.New(rand.NewSource(seed)), //nolint: gosec // it's ok
	}
}

func (that *binaryDiceRoller) Roll() int {
	total := 0
	for i := 0; i < DiceCount; i++ {
		total += that.rng.Intn(2)
	}
	return total
}
