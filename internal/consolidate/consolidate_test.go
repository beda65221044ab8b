package consolidate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takamgr/resultreader/internal/consolidate"
	"github.com/takamgr/resultreader/internal/scorecard"
)

func vec(vals ...int) []scorecard.SectionScore {
	out := make([]scorecard.SectionScore, len(vals))
	for i, v := range vals {
		out[i] = scorecard.Score(v)
	}
	return out
}

func TestTwoOfThreeAgree(t *testing.T) {
	agreed := vec(0, 1, 0, 5)
	got, err := consolidate.Consolidate([][]scorecard.SectionScore{
		agreed,
		vec(0, 2, 0, 5),
		agreed,
	})
	require.NoError(t, err)
	assert.Equal(t, agreed, got)
}

func TestAllDistinctIsNoConsensus(t *testing.T) {
	_, err := consolidate.Consolidate([][]scorecard.SectionScore{
		vec(0, 1, 0, 5),
		vec(0, 2, 0, 5),
		vec(0, 3, 0, 5),
	})
	assert.ErrorIs(t, err, consolidate.ErrNoConsensus)
}

func TestZeroUsableAttempts(t *testing.T) {
	_, err := consolidate.Consolidate([][]scorecard.SectionScore{nil, nil, nil})
	assert.ErrorIs(t, err, consolidate.ErrNoConsensus)

	_, err = consolidate.Consolidate(nil)
	assert.ErrorIs(t, err, consolidate.ErrNoConsensus)
}

func TestSingleUsableAttemptStands(t *testing.T) {
	only := vec(1, 0, 3)
	got, err := consolidate.Consolidate([][]scorecard.SectionScore{nil, only, nil})
	require.NoError(t, err)
	assert.Equal(t, only, got)
}

func TestTieResolvesToFirstEncountered(t *testing.T) {
	a := vec(0, 0, 0, 0)
	b := vec(5, 5, 5, 5)
	got, err := consolidate.Consolidate([][]scorecard.SectionScore{a, b, a, b})
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestNonValueStatesMustMatchExactly(t *testing.T) {
	withAmbiguous := []scorecard.SectionScore{scorecard.Score(1), scorecard.Ambiguous()}
	withUndetermined := []scorecard.SectionScore{scorecard.Score(1), scorecard.Undetermined()}
	withBoth := []scorecard.SectionScore{scorecard.Score(1), scorecard.Score(0)}

	_, err := consolidate.Consolidate([][]scorecard.SectionScore{
		withAmbiguous, withUndetermined, withBoth,
	})
	assert.ErrorIs(t, err, consolidate.ErrNoConsensus)

	got, err := consolidate.Consolidate([][]scorecard.SectionScore{
		withAmbiguous, withUndetermined, withAmbiguous,
	})
	require.NoError(t, err)
	assert.Equal(t, withAmbiguous, got)
}
