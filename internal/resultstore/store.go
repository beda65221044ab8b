// Package resultstore owns the persistent ranked result table of one
// competition day. Every commit reads the whole table, merges one
// session result into the competitor's row, recomputes the per-class
// ranks and rewrites the sorted table in full; there is no append mode.
package resultstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/takamgr/resultreader/internal/roster"
	"github.com/takamgr/resultreader/internal/scorecard"
)

// ErrUnknownEntrant rejects a commit whose entry number is not on the
// roster; nothing is created or mutated.
var ErrUnknownEntrant = errors.New("entry number not in roster")

// AmbiguousSectionsError blocks a Finished commit while any section is
// still in the unresolved error state; the listed 1-based section
// indices need manual review. DNF/DNS commits are not blocked.
type AmbiguousSectionsError struct {
	Sections []int
}

func (e *AmbiguousSectionsError) Error() string {
	return fmt.Sprintf("sections %v need manual review before saving", e.Sections)
}

// Config selects the table identity and the policies a Store runs with.
type Config struct {
	// Dir is where the day's table and its backups live.
	Dir        string
	Format     scorecard.Format
	Tournament scorecard.TournamentType

	// KeepSectionsOnVoid keeps writing the raw section values of a
	// DNF/DNS commit as an audit log; when false the voided session's
	// section slots are blanked instead.
	KeepSectionsOnVoid bool

	Logger *slog.Logger
	Clock  func() time.Time
}

// Commit is one accepted result for a single competitor and session.
type Commit struct {
	EntryNo int
	Session scorecard.SessionTag

	// Scores holds one entry per section of the session being written;
	// shorter slices are padded with undetermined.
	Scores []scorecard.SectionScore

	Status scorecard.FinishStatus

	// Manual marks fallback keyboard entry as opposed to an automated
	// card read.
	Manual bool
}

// Store assumes a single caller commits at a time; it provides no
// internal locking.
type Store struct {
	dir                string
	format             scorecard.Format
	tournament         scorecard.TournamentType
	keepSectionsOnVoid bool
	roster             *roster.Roster
	log                *slog.Logger
	clock              func() time.Time
}

func New(cfg Config, ros *roster.Roster) *Store {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		dir:                cfg.Dir,
		format:             cfg.Format,
		tournament:         cfg.Tournament,
		keepSectionsOnVoid: cfg.KeepSectionsOnVoid,
		roster:             ros,
		log:                log,
		clock:              clock,
	}
}

// Path is the table file the store reads and rewrites today.
func (s *Store) Path() string {
	return filepath.Join(s.dir, tableFileName(s.format, s.clock()))
}

// Load reads the current table; a missing file is an empty table.
func (s *Store) Load() ([]*Row, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	return decodeTable(s.format, data)
}

// Apply merges the commit into the given table rows and returns the
// updated set. Exposed for scenario harnesses; callers persisting data
// use Commit.
func (s *Store) Apply(rows []*Row, c Commit) ([]*Row, error) {
	entrant, ok := s.roster.Lookup(c.EntryNo)
	if !ok {
		return nil, fmt.Errorf("entry %d: %w", c.EntryNo, ErrUnknownEntrant)
	}

	perSession := s.format.SectionsPerSession()
	scores := padScores(c.Scores, perSession)

	if !c.Status.Voids() {
		if ambiguous := ambiguousIndices(scores, c.Session, perSession); len(ambiguous) > 0 {
			return nil, &AmbiguousSectionsError{Sections: ambiguous}
		}
	}

	row := findRow(rows, c.EntryNo)
	if row == nil {
		row = newRow(c.EntryNo, entrant.Name, entrant.Class, s.format.TotalSections())
		rows = append(rows, row)
	} else {
		// Roster is the reference for identity fields.
		row.Name = entrant.Name
		row.Class = entrant.Class
	}

	// Only this session's slots are touched; the other session keeps
	// its prior data.
	slots := row.sessionSlice(c.Session, perSession)
	if c.Status.Voids() && !s.keepSectionsOnVoid {
		for i := range slots {
			slots[i] = scorecard.Undetermined()
		}
	} else {
		for i := range slots {
			if scores[i].IsAmbiguous() {
				// The error sentinel never reaches persistence.
				slots[i] = scorecard.Undetermined()
			} else {
				slots[i] = scores[i]
			}
		}
	}

	if c.Status.Voids() {
		row.setSessionTotals(c.Session, nil, nil)
		row.CombinedTotal = nil
		row.CombinedClean = nil
	} else {
		total, clean := scorecard.Totals(scores, perSession)
		row.setSessionTotals(c.Session, intPtr(total), intPtr(clean))
		row.CombinedTotal, row.CombinedClean = combineTotals(row)
	}

	row.WrittenAt = s.clock().Format("15:04:05")
	row.Input = provenanceLabel(c.Manual, c.Status)
	row.Session = c.Session
	row.Status = c.Status

	s.rankAll(rows)
	s.sortTable(rows)
	return rows, nil
}

// Commit folds one accepted session result into the persisted table.
// The only expected rejections are ErrUnknownEntrant and
// AmbiguousSectionsError, both returned before anything is written; a
// storage failure aborts the commit with the old table intact.
func (s *Store) Commit(c Commit) error {
	rows, err := s.Load()
	if err != nil {
		return err
	}
	rows, err = s.Apply(rows, c)
	if err != nil {
		return err
	}
	if err := s.flush(rows); err != nil {
		return err
	}
	s.log.Info("committed result",
		"entry", c.EntryNo,
		"session", c.Session,
		"status", string(c.Status),
		"rows", len(rows),
	)
	return nil
}

// Rerank recomputes every rank column and rewrites the table without
// changing any scores.
func (s *Store) Rerank() error {
	rows, err := s.Load()
	if err != nil {
		return err
	}
	if rows == nil {
		return nil
	}
	s.rankAll(rows)
	s.sortTable(rows)
	return s.flush(rows)
}

func (s *Store) flush(rows []*Row) error {
	data, err := encodeTable(s.format, rows)
	if err != nil {
		return err
	}
	return writeTableFile(s.Path(), data)
}

func findRow(rows []*Row, entryNo int) *Row {
	for _, r := range rows {
		if r.EntryNo == entryNo {
			return r
		}
	}
	return nil
}

func padScores(scores []scorecard.SectionScore, perSession int) []scorecard.SectionScore {
	out := make([]scorecard.SectionScore, perSession)
	copy(out, scores)
	for i := len(scores); i < perSession; i++ {
		out[i] = scorecard.Undetermined()
	}
	return out
}

// ambiguousIndices reports the 1-based global section indices that
// resolved to the error state.
func ambiguousIndices(scores []scorecard.SectionScore, tag scorecard.SessionTag, perSession int) []int {
	offset := 0
	if tag == scorecard.Afternoon {
		offset = perSession
	}
	var out []int
	for i, sc := range scores {
		if sc.IsAmbiguous() {
			out = append(out, offset+i+1)
		}
	}
	return out
}

func provenanceLabel(manual bool, status scorecard.FinishStatus) string {
	label := "OCR"
	if manual {
		label = "Manual"
	}
	if status.Voids() {
		label += "-" + string(status)
	}
	return label
}

func combineTotals(r *Row) (total, clean *int) {
	var t, c int
	have := false
	if r.AmTotal != nil {
		t += *r.AmTotal
		have = true
	}
	if r.PmTotal != nil {
		t += *r.PmTotal
		have = true
	}
	if r.AmClean != nil {
		c += *r.AmClean
	}
	if r.PmClean != nil {
		c += *r.PmClean
	}
	if !have {
		return nil, nil
	}
	return intPtr(t), intPtr(c)
}
