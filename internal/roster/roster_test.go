package roster_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takamgr/resultreader/internal/roster"
)

func TestParse(t *testing.T) {
	csv := "EntryNo,Name,Class\n" +
		"7,Ito,Open\n" +
		"12,Tanaka,Beginner\n"

	r, err := roster.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Size())

	e, ok := r.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "Ito", e.Name)
	assert.Equal(t, "Open", e.Class)

	_, ok = r.Lookup(99)
	assert.False(t, ok)
}

func TestParseToleratesBOM(t *testing.T) {
	csv := "\uFEFFEntryNo,Name,Class\n7,Ito,Open\n"
	r, err := roster.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	_, ok := r.Lookup(7)
	assert.True(t, ok)
}

func TestBlankNameOrClassIsUnknown(t *testing.T) {
	csv := "EntryNo,Name,Class\n" +
		"7,,Open\n" +
		"8,Suzuki,\n" +
		"9,Sato,NA\n"

	r, err := roster.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	_, ok := r.Lookup(7)
	assert.False(t, ok)
	_, ok = r.Lookup(8)
	assert.False(t, ok)
	_, ok = r.Lookup(9)
	assert.True(t, ok)
}

func TestMalformedRowsSkipped(t *testing.T) {
	csv := "EntryNo,Name,Class\n" +
		"abc,Ghost,Open\n" +
		"10,Mori,IB\n"

	r, err := roster.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Size())
}
