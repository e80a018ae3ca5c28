package votes

import (
	"fmt"
	"math/rand"
	"sort"
)

// Candidate is one votable video message inside the scan window.
type Candidate struct {
	MessageID string
	ChannelID string
	AuthorID  string
	URL       string
	RawVotes  int
	Used      bool
}

// EffectiveVotes subtracts the seed reaction the bot places on every
// candidate, floored at zero for messages where the seed was removed.
func (c Candidate) EffectiveVotes() int {
	if c.RawVotes <= 1 {
		return 0
	}
	return c.RawVotes - 1
}

// Provenance records how the winner was picked, surfaced in the
// announcement footer.
type Provenance int

const (
	// PickOutright: a single unused candidate led its vote group.
	PickOutright Provenance = iota
	// PickRandomTie: drawn at random among several unused candidates tied
	// on votes.
	PickRandomTie
	// PickFallback: every better-placed candidate was already featured.
	PickFallback
)

// Pick is the selection result.
type Pick struct {
	Candidate  Candidate
	Provenance Provenance
	Votes      int
	TiedWith   int
}

func (p *Pick) FooterText() string {
	switch p.Provenance {
	case PickRandomTie:
		return fmt.Sprintf("Selected randomly among %d videos tied with %d votes", p.TiedWith, p.Votes)
	case PickFallback:
		return fmt.Sprintf("Selected with %d votes, higher-voted videos were already featured", p.Votes)
	default:
		return fmt.Sprintf("Selected with %d votes", p.Votes)
	}
}

// SelectWinner applies the vote policy: group candidates by effective
// votes, walk groups from the highest count down, and inside each group
// prefer candidates that have not been featured before. A group with a
// single unused member decides outright; several unused members are
// broken by random draw; a fully-used group is skipped. If every voted
// candidate has been featured already, the draw falls back to the
// original top group regardless of used state. Returns nil when no
// candidate has any effective votes.
func SelectWinner(candidates []Candidate, rng *rand.Rand) *Pick {
	groups := make(map[int][]Candidate)
	for _, c := range candidates {
		if v := c.EffectiveVotes(); v > 0 {
			groups[v] = append(groups[v], c)
		}
	}
	if len(groups) == 0 {
		return nil
	}

	counts := make([]int, 0, len(groups))
	for v := range groups {
		counts = append(counts, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	for i, votes := range counts {
		group := groups[votes]
		var unused []Candidate
		for _, c := range group {
			if !c.Used {
				unused = append(unused, c)
			}
		}

		switch {
		case len(unused) == 1:
			prov := PickOutright
			if i > 0 {
				prov = PickFallback
			}
			return &Pick{Candidate: unused[0], Provenance: prov, Votes: votes, TiedWith: len(group)}
		case len(unused) > 1:
			c := unused[rng.Intn(len(unused))]
			return &Pick{Candidate: c, Provenance: PickRandomTie, Votes: votes, TiedWith: len(unused)}
		}
	}

	top := groups[counts[0]]
	c := top[rng.Intn(len(top))]
	return &Pick{Candidate: c, Provenance: PickFallback, Votes: counts[0], TiedWith: len(top)}
}
