package resolver_test

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takamgr/resultreader/internal/resolver"
	"github.com/takamgr/resultreader/internal/scorecard"
)

const (
	testCols  = 8
	cellSize  = 120
	gridRows  = 5
	punchSize = 50
)

// cardImage draws a white card and punches the given rows per column.
func cardImage(punchesPerCol [][]int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, testCols*cellSize, gridRows*cellSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for col, rows := range punchesPerCol {
		for _, row := range rows {
			cx := col*cellSize + cellSize/2
			cy := row*cellSize + cellSize/2
			punch := image.Rect(cx-punchSize/2, cy-punchSize/2, cx+punchSize/2, cy+punchSize/2)
			draw.Draw(img, punch, image.NewUniform(color.Black), image.Point{}, draw.Src)
		}
	}
	return img
}

func TestSinglePunchResolvesRowValue(t *testing.T) {
	rowToValue := map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 5}
	for row, want := range rowToValue {
		punches := make([][]int, testCols)
		for col := range punches {
			punches[col] = []int{row}
		}
		scores := resolver.Resolve(cardImage(punches), testCols)
		require.Len(t, scores, testCols)
		for _, s := range scores {
			v, ok := s.Value()
			require.True(t, ok, "row %d should resolve", row)
			assert.Equal(t, want, v)
		}
	}
}

func TestFourPunchesResolveToUnpunchedRow(t *testing.T) {
	rowToValue := map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 5}
	for skip, want := range rowToValue {
		var rows []int
		for r := 0; r < gridRows; r++ {
			if r != skip {
				rows = append(rows, r)
			}
		}
		punches := make([][]int, testCols)
		for col := range punches {
			punches[col] = rows
		}
		scores := resolver.Resolve(cardImage(punches), testCols)
		for _, s := range scores {
			v, ok := s.Value()
			require.True(t, ok, "unpunched row %d should resolve", skip)
			assert.Equal(t, want, v)
		}
	}
}

func TestNoPunchIsUndetermined(t *testing.T) {
	punches := make([][]int, testCols)
	scores := resolver.Resolve(cardImage(punches), testCols)
	for _, s := range scores {
		assert.True(t, s.IsUndetermined())
	}
}

func TestAmbiguousPunchCounts(t *testing.T) {
	cases := [][]int{
		{0, 1},          // two punches
		{1, 3, 4},       // three punches
		{0, 1, 2, 3, 4}, // everything punched
	}
	for _, rows := range cases {
		punches := make([][]int, testCols)
		for col := range punches {
			punches[col] = rows
		}
		scores := resolver.Resolve(cardImage(punches), testCols)
		for _, s := range scores {
			assert.True(t, s.IsAmbiguous(), "punch rows %v must be ambiguous", rows)
		}
	}
}

func TestMixedColumns(t *testing.T) {
	punches := [][]int{
		{0},          // clean
		{1},          // one point
		{},           // no mark
		{2, 3},       // ambiguous
		{0, 1, 2, 4}, // all but row 3
		{4},          // five points
		{0},          // clean
		{3},          // three points
	}
	scores := resolver.Resolve(cardImage(punches), testCols)
	require.Len(t, scores, testCols)

	expect := func(i int, want int) {
		v, ok := scores[i].Value()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	expect(0, 0)
	expect(1, 1)
	assert.True(t, scores[2].IsUndetermined())
	assert.True(t, scores[3].IsAmbiguous())
	expect(4, 3)
	expect(5, 5)
	expect(6, 0)
	expect(7, 3)

	total, clean := scorecard.Totals(scores, testCols)
	assert.Equal(t, 12, total)
	assert.Equal(t, 2, clean)
}

func TestSectionsBeyondLimitNotSummed(t *testing.T) {
	punches := [][]int{{1}, {1}, {1}, {1}, {1}, {1}, {1}, {1}}
	scores := resolver.Resolve(cardImage(punches), testCols)
	total, clean := scorecard.Totals(scores, 4)
	assert.Equal(t, 4, total)
	assert.Equal(t, 0, clean)
}

func TestTinyImageClippedSampling(t *testing.T) {
	// Sample regions larger than the cells must clip, not panic, and an
	// all-white card stays undetermined.
	img := image.NewRGBA(image.Rect(0, 0, 16, 10))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	scores := resolver.Resolve(img, 2)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.True(t, s.IsUndetermined())
	}
}
