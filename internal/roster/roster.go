// Package roster reads the entrant list the competition office hands
// over as EntryList.csv. The scoring engine only ever looks entrants up
// by entry number; it never writes the roster.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Entrant is one registered competitor.
type Entrant struct {
	EntryNo int
	Name    string
	Class   string
}

// Roster is an immutable lookup table, safe for concurrent readers.
type Roster struct {
	entrants *xsync.MapOf[int, Entrant]
}

// Load reads an EntryList.csv of the form EntryNo,Name,Class with a
// header line. Rows with a blank name or class are skipped: a number
// that is technically listed but unusable must look like an unknown
// entrant.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads roster rows from r; a UTF-8 byte-order marker before the
// header is tolerated.
func Parse(r io.Reader) (*Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	entrants := xsync.NewMapOf[int, Entrant]()
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster line: %w", err)
		}
		line++
		if line == 1 {
			// Header; field 0 may carry a BOM.
			continue
		}
		if len(record) < 3 {
			continue
		}
		no, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(record[0]), "\uFEFF"))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(record[1])
		class := strings.TrimSpace(record[2])
		if name == "" || class == "" {
			continue
		}
		entrants.Store(no, Entrant{EntryNo: no, Name: name, Class: class})
	}
	return &Roster{entrants: entrants}, nil
}

// Lookup returns the entrant registered under the given number.
func (r *Roster) Lookup(entryNo int) (Entrant, bool) {
	return r.entrants.Load(entryNo)
}

func (r *Roster) Size() int {
	return r.entrants.Size()
}
