package stats

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	charmStats    = 2
	charmMinValue = -4
	charmMaxValue = 4
)

// Charm is a pre-race trinket that shifts two stats.
type Charm struct {
	Modifier Modifier `json:"modifier"`
}

// RandomCharm picks two distinct stats and gives each a delta in [-4,4].
func RandomCharm(rng *rand.Rand) Charm {
	pool := append([]Type(nil), AllTypes...)
	var m Modifier
	for i := 0; i < charmStats; i++ {
		j := rng.Intn(len(pool))
		t := pool[j]
		pool = append(pool[:j], pool[j+1:]...)
		v := charmMinValue + rng.Intn(charmMaxValue-charmMinValue+1)
		m = m.Add(Single(t, v))
	}
	return Charm{Modifier: m}
}

// RandomCharms generates an offer list of n charms.
func RandomCharms(rng *rand.Rand, n int) []Charm {
	if n <= 0 {
		return nil
	}
	out := make([]Charm, n)
	for i := range out {
		out[i] = RandomCharm(rng)
	}
	return out
}

// Describe renders the non-zero deltas, e.g. "+2 speed -1 strength".
func (c Charm) Describe() string {
	parts := make([]string, 0, charmStats)
	for _, t := range AllTypes {
		if d := c.Modifier.Get(t); d != 0 {
			parts = append(parts, fmt.Sprintf("%+.0f %s", d, t))
		}
	}
	return strings.Join(parts, " ")
}
