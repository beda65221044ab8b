// Package behave runs whole-day acceptance scenarios written in TOML:
// a roster, a series of card commits and the expected table afterwards.
// Organizers use it to sanity-check rule changes before a competition.
package behave

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/takamgr/resultreader/internal/resultstore"
	"github.com/takamgr/resultreader/internal/roster"
	"github.com/takamgr/resultreader/internal/scorecard"
)

// SpecEntrant is one roster line in the scenario file.
type SpecEntrant struct {
	EntryNo int    `toml:"entry_no"`
	Name    string `toml:"name"`
	Class   string `toml:"class"`
}

// SpecCommit is one card result fed into the store.
type SpecCommit struct {
	EntryNo int      `toml:"entry_no"`
	Session string   `toml:"session"`
	Scores  []string `toml:"scores"`
	Status  string   `toml:"status"`
	Manual  bool     `toml:"manual"`
}

// SpecExpect checks one row of the resulting table. Only set fields are
// compared; Position is the 1-based row position in the sorted table.
type SpecExpect struct {
	EntryNo   int     `toml:"entry_no"`
	Position  *int    `toml:"position"`
	AmTotal   *int    `toml:"am_total"`
	AmClean   *int    `toml:"am_clean"`
	AmRank    *int    `toml:"am_rank"`
	PmTotal   *int    `toml:"pm_total"`
	PmClean   *int    `toml:"pm_clean"`
	PmRank    *int    `toml:"pm_rank"`
	Total     *int    `toml:"total"`
	Clean     *int    `toml:"clean"`
	TotalRank *string `toml:"total_rank"`
	Input     *string `toml:"input"`
}

type specScenario struct {
	Description string       `toml:"description"`
	Commits     []SpecCommit `toml:"commit"`
	Expect      []SpecExpect `toml:"expect"`
}

type specRoot struct {
	Format    string         `toml:"format"`
	Type      string         `toml:"type"`
	Roster    []SpecEntrant  `toml:"roster"`
	Scenarios []specScenario `toml:"scenarios"`
}

// Case is a runnable scenario converted from TOML.
type Case struct {
	Name       string
	Format     scorecard.Format
	Tournament scorecard.TournamentType
	Roster     []SpecEntrant
	Commits    []resultstore.Commit
	Expect     []SpecExpect
}

// Parse reads a scenario TOML file and converts it to runnable cases.
func Parse(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) ([]Case, error) {
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	format, err := scorecard.ParseFormat(root.Format)
	if err != nil {
		return nil, err
	}
	tournament, err := scorecard.ParseTournamentType(root.Type)
	if err != nil {
		return nil, err
	}
	if len(root.Roster) == 0 {
		return nil, fmt.Errorf("scenario file has an empty roster")
	}

	cases := make([]Case, 0, len(root.Scenarios))
	for _, sc := range root.Scenarios {
		commits := make([]resultstore.Commit, 0, len(sc.Commits))
		for _, c := range sc.Commits {
			session, err := scorecard.ParseSessionTag(c.Session)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: %w", sc.Description, err)
			}
			scores, err := parseScores(c.Scores)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: %w", sc.Description, err)
			}
			commits = append(commits, resultstore.Commit{
				EntryNo: c.EntryNo,
				Session: session,
				Scores:  scores,
				Status:  scorecard.FinishStatus(c.Status),
				Manual:  c.Manual,
			})
		}
		cases = append(cases, Case{
			Name:       sc.Description,
			Format:     format,
			Tournament: tournament,
			Roster:     root.Roster,
			Commits:    commits,
			Expect:     sc.Expect,
		})
	}
	return cases, nil
}

// parseScores reads the scenario score tokens: digits for penalties,
// "-" for undetermined, "?" for ambiguous.
func parseScores(tokens []string) ([]scorecard.SectionScore, error) {
	out := make([]scorecard.SectionScore, len(tokens))
	for i, tok := range tokens {
		switch tok {
		case "-":
			out[i] = scorecard.Undetermined()
		case "?":
			out[i] = scorecard.Ambiguous()
		default:
			sc, err := scorecard.ParseCell(tok)
			if err != nil {
				return nil, err
			}
			out[i] = sc
		}
	}
	return out, nil
}

// Run replays one case against a fresh store in dir and compares the
// resulting table to the expectations. The returned error describes the
// first mismatch.
func Run(c Case, dir string) error {
	var sb strings.Builder
	sb.WriteString("EntryNo,Name,Class\n")
	for _, e := range c.Roster {
		fmt.Fprintf(&sb, "%d,%s,%s\n", e.EntryNo, e.Name, e.Class)
	}
	ros, err := roster.Parse(strings.NewReader(sb.String()))
	if err != nil {
		return fmt.Errorf("case %q: %w", c.Name, err)
	}

	store := resultstore.New(resultstore.Config{
		Dir:                dir,
		Format:             c.Format,
		Tournament:         c.Tournament,
		KeepSectionsOnVoid: true,
		Clock:              time.Now,
	}, ros)

	for i, commit := range c.Commits {
		if err := store.Commit(commit); err != nil {
			return fmt.Errorf("case %q commit %d: %w", c.Name, i+1, err)
		}
	}

	rows, err := store.Load()
	if err != nil {
		return fmt.Errorf("case %q: %w", c.Name, err)
	}
	for _, exp := range c.Expect {
		if err := checkRow(rows, exp); err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
	}
	return nil
}

func checkRow(rows []*resultstore.Row, exp SpecExpect) error {
	pos := -1
	var row *resultstore.Row
	for i, r := range rows {
		if r.EntryNo == exp.EntryNo {
			pos = i + 1
			row = r
			break
		}
	}
	if row == nil {
		return fmt.Errorf("entry %d not in table", exp.EntryNo)
	}
	if exp.Position != nil && pos != *exp.Position {
		return fmt.Errorf("entry %d at position %d, want %d", exp.EntryNo, pos, *exp.Position)
	}
	checks := []struct {
		name string
		want *int
		got  *int
	}{
		{"am_total", exp.AmTotal, row.AmTotal},
		{"am_clean", exp.AmClean, row.AmClean},
		{"am_rank", exp.AmRank, row.AmRank},
		{"pm_total", exp.PmTotal, row.PmTotal},
		{"pm_clean", exp.PmClean, row.PmClean},
		{"pm_rank", exp.PmRank, row.PmRank},
		{"total", exp.Total, row.CombinedTotal},
		{"clean", exp.Clean, row.CombinedClean},
	}
	for _, ch := range checks {
		if ch.want == nil {
			continue
		}
		if ch.got == nil {
			return fmt.Errorf("entry %d: %s is blank, want %d", exp.EntryNo, ch.name, *ch.want)
		}
		if *ch.got != *ch.want {
			return fmt.Errorf("entry %d: %s is %d, want %d", exp.EntryNo, ch.name, *ch.got, *ch.want)
		}
	}
	if exp.TotalRank != nil && row.CombinedRank != *exp.TotalRank {
		return fmt.Errorf("entry %d: total_rank is %q, want %q", exp.EntryNo, row.CombinedRank, *exp.TotalRank)
	}
	if exp.Input != nil && row.Input != *exp.Input {
		return fmt.Errorf("entry %d: input is %q, want %q", exp.EntryNo, row.Input, *exp.Input)
	}
	return nil
}
