package tactical

import "math/rand"

// Roller produces d6 results. Battles, AA fire, and tech research all
// draw from the game's single roller, so a fixed seed reproduces an
// entire session.
type Roller interface {
	// Roll returns a die result in 1..6.
	Roll() int
}

type d6Roller struct {
	rng *rand.Rand
}

// NewRoller returns a seeded d6 roller.
func NewRoller(seed int64) Roller {
	return &d6Roller{rng: rand.New(rand.NewSource(seed))}
}

func (r *d6Roller) Roll() int {
	return r.rng.Intn(6) + 1
}

// fixedRoller feeds predetermined results to tests.
type fixedRoller struct {
	rolls []int
	next  int
}

// NewFixedRoller returns a Roller that yields the given results in order
// and then repeats the last one.
func NewFixedRoller(rolls ...int) Roller {
	return &fixedRoller{rolls: rolls}
}

func (r *fixedRoller) Roll() int {
	if len(r.rolls) == 0 {
		return 1
	}
	v := r.rolls[min(r.next, len(r.rolls)-1)]
	r.next++
	return v
}
