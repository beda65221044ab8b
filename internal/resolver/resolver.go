// Package resolver turns a rectified punch-grid image into per-section
// penalty scores. The grid is 5 rows by one column per section; the card
// format punches either the single true value or everything but it.
package resolver

import (
	"image"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/takamgr/resultreader/internal/scorecard"
)

const gridRows = 5

// Params tunes cell sampling; the defaults match the card stock and
// puncher the clubs actually use.
type Params struct {
	// ROIHalfSize is the half-width of the square sample region centered
	// in each grid cell.
	ROIHalfSize int

	// DarkSumThr marks a pixel as dark when the sum of its 8-bit RGB
	// channels falls below it.
	DarkSumThr int

	// PunchedDarkRate is the dark-pixel fraction at which a cell counts
	// as punched.
	PunchedDarkRate float64
}

func DefaultParams() Params {
	return Params{
		ROIHalfSize:     40,
		DarkSumThr:      300,
		PunchedDarkRate: 0.05,
	}
}

// rowValue maps grid rows, top to bottom, to penalty values.
var rowValue = [gridRows]int{0, 1, 2, 3, 5}

// Resolve reads one score per column of the punch grid. Punch count per
// column decides the outcome: no punches means the section was never
// marked, one punch names the value, four punches leave only the true
// value unpunched, anything else is ambiguous.
func Resolve(img image.Image, cols int) []scorecard.SectionScore {
	return ResolveWith(DefaultParams(), img, cols)
}

// ResolveWith is Resolve with explicit sampling parameters.
func ResolveWith(p Params, img image.Image, cols int) []scorecard.SectionScore {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	cellW := width / cols
	cellH := height / gridRows

	scores := make([]scorecard.SectionScore, 0, cols)
	for col := 0; col < cols; col++ {
		punched := mapset.NewThreadUnsafeSet[int]()
		for row := 0; row < gridRows; row++ {
			cx := bounds.Min.X + col*cellW + cellW/2
			cy := bounds.Min.Y + row*cellH + cellH/2
			if darkRate(p, img, cx, cy) >= p.PunchedDarkRate {
				punched.Add(row)
			}
		}
		scores = append(scores, scoreFromPunches(punched))
	}
	return scores
}

func scoreFromPunches(punched mapset.Set[int]) scorecard.SectionScore {
	switch punched.Cardinality() {
	case 0:
		return scorecard.Undetermined()
	case 1:
		row, _ := punched.Pop()
		return scorecard.Score(rowValue[row])
	case gridRows - 1:
		all := mapset.NewThreadUnsafeSet[int]()
		for row := 0; row < gridRows; row++ {
			all.Add(row)
		}
		row, ok := all.Difference(punched).Pop()
		if !ok {
			return scorecard.Ambiguous()
		}
		return scorecard.Score(rowValue[row])
	default:
		// 2, 3 or all 5 rows punched cannot name a value.
		return scorecard.Ambiguous()
	}
}

// darkRate samples a fixed-radius square around (cx, cy), clipped to the
// image bounds. An empty sample region yields 0.
func darkRate(p Params, img image.Image, cx, cy int) float64 {
	bounds := img.Bounds()
	dark := 0
	total := 0
	for dy := -p.ROIHalfSize; dy <= p.ROIHalfSize; dy++ {
		for dx := -p.ROIHalfSize; dx <= p.ROIHalfSize; dx++ {
			x := cx + dx
			y := cy + dy
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			r, g, b, _ := img.At(x, y).RGBA()
			sum := int(r>>8) + int(g>>8) + int(b>>8)
			if sum < p.DarkSumThr {
				dark++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}
