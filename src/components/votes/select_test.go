package votes

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(id string, raw int, used bool) Candidate {
	return Candidate{MessageID: id, RawVotes: raw, Used: used}
}

func TestEffectiveVotesSubtractsSeed(t *testing.T) {
	assert.Equal(t, 0, cand("a", 0, false).EffectiveVotes())
	assert.Equal(t, 0, cand("a", 1, false).EffectiveVotes())
	assert.Equal(t, 3, cand("a", 4, false).EffectiveVotes())
}

func TestSelectWinnerNoEffectiveVotes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Nil(t, SelectWinner(nil, rng))
	assert.Nil(t, SelectWinner([]Candidate{cand("a", 1, false), cand("b", 0, false)}, rng))
}

func TestSelectWinnerOutright(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pick := SelectWinner([]Candidate{
		cand("a", 4, false),
		cand("b", 2, false),
		cand("c", 1, false),
	}, rng)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.Candidate.MessageID)
	assert.Equal(t, PickOutright, pick.Provenance)
	assert.Equal(t, "Selected with 3 votes", pick.FooterText())
}

func TestSelectWinnerTieBreakIsSeedDeterministic(t *testing.T) {
	tied := []Candidate{
		cand("a", 6, false),
		cand("b", 6, false),
		cand("c", 4, false),
	}

	first := SelectWinner(tied, rand.New(rand.NewSource(42)))
	second := SelectWinner(tied, rand.New(rand.NewSource(42)))
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Candidate.MessageID, second.Candidate.MessageID)
	assert.Equal(t, PickRandomTie, first.Provenance)
	assert.Contains(t, []string{"a", "b"}, first.Candidate.MessageID)
	assert.Equal(t, 2, first.TiedWith)
	assert.Equal(t, 5, first.Votes)
}

func TestSelectWinnerSingleUnusedInTiedGroupWinsOutright(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pick := SelectWinner([]Candidate{
		cand("a", 6, true),
		cand("b", 6, false),
	}, rng)
	require.NotNil(t, pick)
	assert.Equal(t, "b", pick.Candidate.MessageID)
	assert.Equal(t, PickOutright, pick.Provenance)
}

func TestSelectWinnerFallsThroughExhaustedGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pick := SelectWinner([]Candidate{
		cand("a", 6, true),
		cand("b", 6, true),
		cand("c", 4, false),
	}, rng)
	require.NotNil(t, pick)
	assert.Equal(t, "c", pick.Candidate.MessageID)
	assert.Equal(t, PickFallback, pick.Provenance)
	assert.Equal(t, 3, pick.Votes)
}

func TestSelectWinnerAllUsedFallsBackToTopGroup(t *testing.T) {
	all := []Candidate{
		cand("a", 6, true),
		cand("b", 6, true),
		cand("c", 4, true),
	}
	pick := SelectWinner(all, rand.New(rand.NewSource(7)))
	require.NotNil(t, pick)
	assert.Contains(t, []string{"a", "b"}, pick.Candidate.MessageID)
	assert.Equal(t, PickFallback, pick.Provenance)
	assert.Equal(t, 5, pick.Votes)
}
