package scorecard

import "fmt"

type scoreState uint8

const (
	stateUndetermined scoreState = iota
	stateValue
	stateAmbiguous
)

// SectionScore is the penalty recorded for one section. Besides the
// punch values 0/1/2/3/5 it carries two non-value states: undetermined
// (no mark on the card) and ambiguous (a punch pattern that cannot be
// resolved). Both serialize as a blank cell; neither ever counts toward
// totals.
type SectionScore struct {
	state scoreState
	value int
}

// ValidPenalties are the only punch values a card can encode.
var ValidPenalties = []int{0, 1, 2, 3, 5}

func Score(v int) SectionScore {
	for _, p := range ValidPenalties {
		if v == p {
			return SectionScore{state: stateValue, value: v}
		}
	}
	panic(fmt.Sprintf("invalid section penalty: %d", v))
}

func Undetermined() SectionScore {
	return SectionScore{state: stateUndetermined}
}

func Ambiguous() SectionScore {
	return SectionScore{state: stateAmbiguous}
}

// Value returns the penalty and true when the score resolved to an
// actual punch value.
func (s SectionScore) Value() (int, bool) {
	return s.value, s.state == stateValue
}

func (s SectionScore) IsUndetermined() bool {
	return s.state == stateUndetermined
}

func (s SectionScore) IsAmbiguous() bool {
	return s.state == stateAmbiguous
}

// Cell renders the score for the persisted table. Undetermined and
// ambiguous both collapse to a blank cell at this boundary.
func (s SectionScore) Cell() string {
	if s.state != stateValue {
		return ""
	}
	return fmt.Sprint(s.value)
}

// ParseCell reads a persisted table cell back into a score. A blank cell
// loads as undetermined; the ambiguous state never round-trips because
// it is normalized to blank on write.
func ParseCell(cell string) (SectionScore, error) {
	if cell == "" {
		return Undetermined(), nil
	}
	var v int
	if _, err := fmt.Sscanf(cell, "%d", &v); err != nil {
		return SectionScore{}, fmt.Errorf("unreadable section cell %q: %w", cell, err)
	}
	for _, p := range ValidPenalties {
		if v == p {
			return Score(v), nil
		}
	}
	return SectionScore{}, fmt.Errorf("section cell %q is not a valid penalty", cell)
}

func (s SectionScore) String() string {
	switch s.state {
	case stateValue:
		return fmt.Sprint(s.value)
	case stateAmbiguous:
		return "?"
	default:
		return "-"
	}
}

// Totals sums the first limit scores of a capture. Undetermined and
// ambiguous sections are skipped; clean counts sections resolved to
// exactly zero.
func Totals(scores []SectionScore, limit int) (total int, clean int) {
	if limit > len(scores) {
		limit = len(scores)
	}
	for _, s := range scores[:limit] {
		v, ok := s.Value()
		if !ok {
			continue
		}
		total += v
		if v == 0 {
			clean++
		}
	}
	return total, clean
}

// SessionTag identifies the half of the competition day a result
// belongs to.
type SessionTag string

const (
	Morning   SessionTag = "AM"
	Afternoon SessionTag = "PM"
)

func ParseSessionTag(s string) (SessionTag, error) {
	switch SessionTag(s) {
	case Morning, Afternoon:
		return SessionTag(s), nil
	}
	return "", fmt.Errorf("unknown session tag %q", s)
}

// FinishStatus governs whether a session's scores rank or are retained
// only as a log.
type FinishStatus string

const (
	Finished     FinishStatus = ""
	DidNotFinish FinishStatus = "DNF"
	DidNotStart  FinishStatus = "DNS"
)

func (f FinishStatus) Voids() bool {
	return f == DidNotFinish || f == DidNotStart
}
