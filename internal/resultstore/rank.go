package resultstore

import (
	"sort"

	"github.com/takamgr/resultreader/internal/scorecard"
)

// rankColumn describes one of the three rank passes: where its total and
// clean live, which section slice feeds the deep tie-break counts, and
// where the rank lands.
type rankColumn struct {
	total    func(*Row) *int
	clean    func(*Row) *int
	sections func(*Row) []scorecard.SectionScore
	assign   func(*Row, *int)
}

// rankAll recomputes the morning, afternoon and combined rank columns
// independently within every class. Rows without a usable total for a
// column are excluded from that pass and get no rank; voided rows then
// have their combined cell overwritten with the DNF/DNS label, which
// always wins over a numeral.
func (s *Store) rankAll(rows []*Row) {
	perSession := s.format.SectionsPerSession()

	columns := []rankColumn{
		{
			total:    func(r *Row) *int { return r.AmTotal },
			clean:    func(r *Row) *int { return r.AmClean },
			sections: func(r *Row) []scorecard.SectionScore { return r.sessionSlice(scorecard.Morning, perSession) },
			assign:   func(r *Row, rank *int) { r.AmRank = rank },
		},
		{
			total:    func(r *Row) *int { return r.PmTotal },
			clean:    func(r *Row) *int { return r.PmClean },
			sections: func(r *Row) []scorecard.SectionScore { return r.sessionSlice(scorecard.Afternoon, perSession) },
			assign:   func(r *Row, rank *int) { r.PmRank = rank },
		},
		{
			total:    func(r *Row) *int { return r.CombinedTotal },
			clean:    func(r *Row) *int { return r.CombinedClean },
			sections: func(r *Row) []scorecard.SectionScore { return r.Sections },
			assign: func(r *Row, rank *int) {
				if rank == nil {
					r.CombinedRank = ""
				} else {
					r.CombinedRank = intCell(rank)
				}
			},
		},
	}

	byClass := make(map[string][]*Row)
	for _, r := range rows {
		if r.Class == "" {
			continue
		}
		byClass[r.Class] = append(byClass[r.Class], r)
	}

	for _, col := range columns {
		for _, group := range byClass {
			ranked := make([]*Row, 0, len(group))
			for _, r := range group {
				col.assign(r, nil)
				if col.total(r) != nil {
					ranked = append(ranked, r)
				}
			}
			sort.SliceStable(ranked, func(i, j int) bool {
				return lessByFiveKeys(ranked[i], ranked[j], col)
			})
			for i, r := range ranked {
				col.assign(r, intPtr(i+1))
			}
		}
	}

	// The status label beats any numeral in the combined cell.
	for _, r := range rows {
		if r.Status.Voids() {
			r.CombinedRank = string(r.Status)
		}
	}
}

// lessByFiveKeys orders two ranked rows by the official rule: total
// penalty ascending, clean count descending, then count of 1-, 2- and
// 3-point sections, each descending.
func lessByFiveKeys(a, b *Row, col rankColumn) bool {
	at, bt := *col.total(a), *col.total(b)
	if at != bt {
		return at < bt
	}
	ac, bc := cleanOrZero(col.clean(a)), cleanOrZero(col.clean(b))
	if ac != bc {
		return ac > bc
	}
	a1, a2, a3 := penaltyCounts(col.sections(a))
	b1, b2, b3 := penaltyCounts(col.sections(b))
	if a1 != b1 {
		return a1 > b1
	}
	if a2 != b2 {
		return a2 > b2
	}
	return a3 > b3
}

func cleanOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// sortTable orders the whole table the way it is persisted: class in the
// tournament's official order with unknown classes after all known ones
// (alphabetical among themselves), then combined total ascending,
// combined clean descending, then the three penalty-count keys over the
// full section vector.
func (s *Store) sortTable(rows []*Row) {
	order := map[string]int{}
	for i, c := range s.tournament.ClassOrder() {
		order[c] = i
	}
	known := len(order)

	classKey := func(r *Row) (int, string) {
		if i, ok := order[r.Class]; ok {
			return i, ""
		}
		return known, r.Class
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		ai, ac := classKey(a)
		bi, bc := classKey(b)
		if ai != bi {
			return ai < bi
		}
		if ac != bc {
			return ac < bc
		}
		at, bt := totalOrMax(a.CombinedTotal), totalOrMax(b.CombinedTotal)
		if at != bt {
			return at < bt
		}
		acl, bcl := cleanOrMin(a.CombinedClean), cleanOrMin(b.CombinedClean)
		if acl != bcl {
			return acl > bcl
		}
		a1, a2, a3 := penaltyCounts(a.Sections)
		b1, b2, b3 := penaltyCounts(b.Sections)
		if a1 != b1 {
			return a1 > b1
		}
		if a2 != b2 {
			return a2 > b2
		}
		return a3 > b3
	})
}

func totalOrMax(v *int) int {
	if v == nil {
		return int(^uint(0) >> 1)
	}
	return *v
}

func cleanOrMin(v *int) int {
	if v == nil {
		return -1 << 31
	}
	return *v
}
