// Package consolidate reduces several independent resolver readings of
// the same physical card to one accepted section vector. A single
// optical read is noisy; three cheap exposures plus a majority vote beat
// chasing single-shot accuracy.
package consolidate

import (
	"errors"
	"strings"

	"github.com/takamgr/resultreader/internal/scorecard"
)

// ErrNoConsensus is returned when the attempts cannot name one agreed
// vector; the caller must fall back to manual entry.
var ErrNoConsensus = errors.New("no consensus between capture attempts")

// Consolidate picks the section vector that the most attempts agree on.
// Nil attempts (failed acquisitions) are skipped. A lone usable attempt
// stands by itself; with more than one, the winning group needs at least
// two members — pairwise-distinct attempts never guess. Equally sized
// groups resolve to the one encountered first, so the result is
// deterministic in capture order.
func Consolidate(attempts [][]scorecard.SectionScore) ([]scorecard.SectionScore, error) {
	usable := make([][]scorecard.SectionScore, 0, len(attempts))
	for _, a := range attempts {
		if len(a) > 0 {
			usable = append(usable, a)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoConsensus
	}
	if len(usable) == 1 {
		return usable[0], nil
	}

	counts := make(map[string]int, len(usable))
	first := make(map[string]int, len(usable))
	for i, a := range usable {
		k := vectorKey(a)
		counts[k]++
		if _, seen := first[k]; !seen {
			first[k] = i
		}
	}

	bestIdx := -1
	bestCount := 0
	for _, a := range usable {
		k := vectorKey(a)
		if counts[k] > bestCount || (counts[k] == bestCount && first[k] < bestIdx) {
			bestCount = counts[k]
			bestIdx = first[k]
		}
	}
	if bestCount < 2 {
		return nil, ErrNoConsensus
	}
	return usable[bestIdx], nil
}

// vectorKey encodes a section vector for structural comparison. The
// undetermined and ambiguous states are distinct on purpose: attempts
// only agree when they read every section the same way.
func vectorKey(scores []scorecard.SectionScore) string {
	var b strings.Builder
	for _, s := range scores {
		b.WriteString(s.String())
		b.WriteByte(',')
	}
	return b.String()
}
