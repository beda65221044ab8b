package resultstore

import (
	"strconv"

	"github.com/takamgr/resultreader/internal/scorecard"
)

// Row is one competitor's line in the day's result table. Totals and
// ranks are optional: a blank cell means the value does not exist yet or
// was voided, never zero.
type Row struct {
	EntryNo int
	Name    string
	Class   string

	// Sections holds both sessions flat, addressable by 1-based section
	// index; length is always Format.TotalSections().
	Sections []scorecard.SectionScore

	AmTotal *int
	AmClean *int
	AmRank  *int

	PmTotal *int
	PmClean *int
	PmRank  *int

	CombinedTotal *int
	CombinedClean *int

	// CombinedRank is a cell, not a number: it carries the rank numeral
	// or the literal DNF/DNS status label for voided rows.
	CombinedRank string

	WrittenAt string // wall clock HH:MM:SS of the last commit
	Input     string // provenance label, e.g. "OCR" or "Manual-DNF"
	Session   scorecard.SessionTag

	// Status of the most recent commit; restored from the combined rank
	// cell on load.
	Status scorecard.FinishStatus
}

func newRow(entryNo int, name, class string, totalSections int) *Row {
	return &Row{
		EntryNo:  entryNo,
		Name:     name,
		Class:    class,
		Sections: make([]scorecard.SectionScore, totalSections),
	}
}

// sessionSlice returns the half of the section vector belonging to the
// given session.
func (r *Row) sessionSlice(tag scorecard.SessionTag, perSession int) []scorecard.SectionScore {
	if tag == scorecard.Morning {
		return r.Sections[:perSession]
	}
	return r.Sections[perSession : perSession*2]
}

func (r *Row) sessionTotals(tag scorecard.SessionTag) (total, clean *int) {
	if tag == scorecard.Morning {
		return r.AmTotal, r.AmClean
	}
	return r.PmTotal, r.PmClean
}

func (r *Row) setSessionTotals(tag scorecard.SessionTag, total, clean *int) {
	if tag == scorecard.Morning {
		r.AmTotal, r.AmClean = total, clean
	} else {
		r.PmTotal, r.PmClean = total, clean
	}
}

// penaltyCounts tallies how many sections of the slice scored exactly
// 1, 2 and 3 points; these are the deep tie-break keys.
func penaltyCounts(scores []scorecard.SectionScore) (ones, twos, threes int) {
	for _, s := range scores {
		v, ok := s.Value()
		if !ok {
			continue
		}
		switch v {
		case 1:
			ones++
		case 2:
			twos++
		case 3:
			threes++
		}
	}
	return ones, twos, threes
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseIntCell(cell string) (*int, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func intPtr(v int) *int {
	return &v
}
