package identity

import (
	"fmt"
	"math/rand"
	"sync"
)

var adjectives = []string{"Happy", "Lucky", "Sunny", "Cool", "Smart", "Clever"}

var nouns = []string{"Pokemon", "Trainer", "Master", "Champion", "Hero", "Legend"}

const (
	spriteURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"
	spriteCount     = 151
)

// Generator produces random display names and avatar references for new
// identities. Purely cosmetic; safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator builds a generator seeded from the given source value.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// DisplayName returns a name like "LuckyTrainer42".
func (g *Generator) DisplayName() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	adjective := adjectives[g.rng.Intn(len(adjectives))]
	noun := nouns[g.rng.Intn(len(nouns))]
	return fmt.Sprintf("%s%s%d", adjective, noun, g.rng.Intn(1000))
}

// AvatarRef returns a sprite URL for one of the first-generation Pokemon.
func (g *Generator) AvatarRef() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return fmt.Sprintf(spriteURLFormat, g.rng.Intn(spriteCount)+1)
}
