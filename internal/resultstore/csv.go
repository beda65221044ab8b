package resultstore

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/takamgr/resultreader/internal/scorecard"
)

// Fixed column names of the persisted table. Section columns sit between
// Class and AmG, labeled Sec01..SecNN.
const (
	colEntryNo       = "EntryNo"
	colName          = "Name"
	colClass         = "Class"
	colAmTotal       = "AmG"
	colAmClean       = "AmC"
	colAmRank        = "AmRank"
	colPmTotal       = "PmG"
	colPmClean       = "PmC"
	colPmRank        = "PmRank"
	colCombinedTotal = "TotalG"
	colCombinedClean = "TotalC"
	colCombinedRank  = "TotalRank"
	colTime          = "Time"
	colInput         = "Input"
	colSession       = "Session"
)

func header(format scorecard.Format) []string {
	h := []string{colEntryNo, colName, colClass}
	for i := 1; i <= format.TotalSections(); i++ {
		h = append(h, scorecard.SectionLabel(i))
	}
	h = append(h,
		colAmTotal, colAmClean, colAmRank,
		colPmTotal, colPmClean, colPmRank,
		colCombinedTotal, colCombinedClean, colCombinedRank,
		colTime, colInput, colSession,
	)
	return h
}

// encodeTable renders the sorted table as UTF-8 CSV with a leading BOM
// so spreadsheet tools pick the encoding up.
func encodeTable(format scorecard.Format, rows []*Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	h := header(format)
	if err := w.Write(h); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(encodeRow(h, format, r)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r.EntryNo, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeRow(h []string, format scorecard.Format, r *Row) []string {
	record := make([]string, len(h))
	cells := map[string]string{
		colEntryNo:       strconv.Itoa(r.EntryNo),
		colName:          r.Name,
		colClass:         r.Class,
		colAmTotal:       intCell(r.AmTotal),
		colAmClean:       intCell(r.AmClean),
		colAmRank:        intCell(r.AmRank),
		colPmTotal:       intCell(r.PmTotal),
		colPmClean:       intCell(r.PmClean),
		colPmRank:        intCell(r.PmRank),
		colCombinedTotal: intCell(r.CombinedTotal),
		colCombinedClean: intCell(r.CombinedClean),
		colCombinedRank:  r.CombinedRank,
		colTime:          r.WrittenAt,
		colInput:         r.Input,
		colSession:       string(r.Session),
	}
	for i := 1; i <= format.TotalSections(); i++ {
		cells[scorecard.SectionLabel(i)] = r.Sections[i-1].Cell()
	}
	for i, name := range h {
		record[i] = cells[name]
	}
	return record
}

// decodeTable reads a persisted table back. Columns are addressed by
// header name, and a byte-order marker before the header is tolerated.
func decodeTable(format scorecard.Format, data []byte) ([]*Row, error) {
	text := strings.TrimPrefix(string(data), "\uFEFF")
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}
	col := make(map[string]int, len(head))
	for i, name := range head {
		col[name] = i
	}

	cell := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []*Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row: %w", err)
		}

		entryNo, err := strconv.Atoi(cell(record, colEntryNo))
		if err != nil {
			return nil, fmt.Errorf("unreadable entry number %q: %w", cell(record, colEntryNo), err)
		}
		r := newRow(entryNo, cell(record, colName), cell(record, colClass), format.TotalSections())

		for i := 1; i <= format.TotalSections(); i++ {
			s, err := scorecard.ParseCell(cell(record, scorecard.SectionLabel(i)))
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", entryNo, err)
			}
			r.Sections[i-1] = s
		}

		ints := []struct {
			name string
			dst  **int
		}{
			{colAmTotal, &r.AmTotal}, {colAmClean, &r.AmClean}, {colAmRank, &r.AmRank},
			{colPmTotal, &r.PmTotal}, {colPmClean, &r.PmClean}, {colPmRank, &r.PmRank},
			{colCombinedTotal, &r.CombinedTotal}, {colCombinedClean, &r.CombinedClean},
		}
		for _, c := range ints {
			v, err := parseIntCell(cell(record, c.name))
			if err != nil {
				return nil, fmt.Errorf("entry %d: unreadable %s cell: %w", entryNo, c.name, err)
			}
			*c.dst = v
		}

		r.CombinedRank = cell(record, colCombinedRank)
		r.WrittenAt = cell(record, colTime)
		r.Input = cell(record, colInput)
		r.Session = scorecard.SessionTag(cell(record, colSession))

		switch r.CombinedRank {
		case string(scorecard.DidNotFinish):
			r.Status = scorecard.DidNotFinish
		case string(scorecard.DidNotStart):
			r.Status = scorecard.DidNotStart
		}

		rows = append(rows, r)
	}
	return rows, nil
}
