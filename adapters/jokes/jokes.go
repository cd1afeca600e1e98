package jokes

import (
	_ "embed"
	"math/rand/v2"
	"strings"

	"github.com/satriahrh/marcus/domain/repositories"
)

//go:embed jokes.txt
var jokesFile string

// Teller picks jokes from a fixed embedded list
type Teller struct {
	jokes []string
	intn  func(n int) int
}

var _ repositories.JokeTeller = (*Teller)(nil)

// NewTeller creates a teller over the embedded list
func NewTeller() *Teller {
	return &Teller{jokes: parse(jokesFile), intn: rand.IntN}
}

// Joke implements repositories.JokeTeller
func (t *Teller) Joke() string {
	return t.jokes[t.intn(len(t.jokes))]
}

func parse(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
