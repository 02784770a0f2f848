package systems

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/garden/traits"
)

// NewID returns a 16-hex-digit identifier drawn from rng.
func NewID(rng *rand.Rand) string {
	return fmt.Sprintf("%016x", rng.Uint64())
}

var namePrefixes = map[traits.Species][]string{
	traits.SpeciesPlant:     {"Fern", "Moss", "Clover", "Sedge", "Sorrel", "Bramble", "Thistle", "Reed"},
	traits.SpeciesHerbivore: {"Nibbler", "Grazer", "Hopper", "Muncher", "Browser", "Skitter", "Burrower"},
	traits.SpeciesCarnivore: {"Stalker", "Fang", "Prowler", "Shrike", "Talon", "Lurker"},
	traits.SpeciesFungus:    {"Cap", "Spore", "Mycel", "Puffball", "Morel", "Bracket"},
}

var nameSuffixes = []string{
	"ash", "birch", "cinder", "dew", "ember", "frost", "glen", "hollow",
	"ivy", "juniper", "kestrel", "loam", "mire", "nettle", "oak", "pebble",
}

// NewName returns a readable name for a member of sp. It draws exactly two values from rng.
func NewName(rng *rand.Rand, sp traits.Species) string {
	prefixes := namePrefixes[sp]
	if len(prefixes) == 0 {
		prefixes = []string{sp.String()}
	}
	p := prefixes[rng.Intn(len(prefixes))]
	s := nameSuffixes[rng.Intn(len(nameSuffixes))]
	return p + "-" + s
}
