package scorecard

import "fmt"

// Format is the closed set of course layouts a competition day can run.
// The code names sections-per-lap × laps-per-session; both sessions use
// the same layout, so the full card holds twice the per-session count.
type Format struct {
	code           string
	sectionsPerLap int
	lapsPerSession int
}

var (
	Format4x2 = Format{code: "4x2", sectionsPerLap: 4, lapsPerSession: 2}
	Format4x3 = Format{code: "4x3", sectionsPerLap: 4, lapsPerSession: 3}
	Format5x2 = Format{code: "5x2", sectionsPerLap: 5, lapsPerSession: 2}
)

func Formats() []Format {
	return []Format{Format4x2, Format4x3, Format5x2}
}

func ParseFormat(code string) (Format, error) {
	for _, f := range Formats() {
		if f.code == code {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("unknown competition format %q", code)
}

func (f Format) Code() string {
	return f.code
}

// SectionsPerSession is the number of scored sections in one half of
// the day.
func (f Format) SectionsPerSession() int {
	return f.sectionsPerLap * f.lapsPerSession
}

// TotalSections covers both sessions.
func (f Format) TotalSections() int {
	return f.SectionsPerSession() * 2
}

// SectionLabel is the 1-based two-digit column label for a section.
func SectionLabel(index int) string {
	return fmt.Sprintf("Sec%02d", index)
}

// TournamentType selects the class set and its display order.
type TournamentType string

const (
	Championship TournamentType = "championship"
	Beginner     TournamentType = "beginner"
)

func ParseTournamentType(s string) (TournamentType, error) {
	switch TournamentType(s) {
	case Championship, Beginner:
		return TournamentType(s), nil
	}
	return "", fmt.Errorf("unknown tournament type %q", s)
}

// ClassOrder lists the known classes in their official standing order.
// Classes outside the list sort after all known ones.
func (t TournamentType) ClassOrder() []string {
	if t == Championship {
		return []string{"IA", "IB", "NA", "NB"}
	}
	return []string{"Open", "Beginner"}
}
