package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// LoadCSV reads a CSV file and returns rows as maps of column to value.
// The first row is treated as headers (column names).
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	return ParseCSV(f, path)
}

// ParseCSV reads CSV rows from r. name is only used in error messages.
func ParseCSV(r io.Reader, name string) ([]Row, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", name)
	}

	headers := records[0]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// csv column aliases, first match wins
var (
	idColumns       = []string{"case_id", "id"}
	inputColumns    = []string{"input", "prompt"}
	expectedColumns = []string{"expected"}
)

const constraintsColumn = "constraints"

// RowsToTestCases maps CSV rows onto test cases. Unrecognized columns end up
// in the case metadata; constraints are separated by ";".
func RowsToTestCases(rows []Row) ([]models.TestCase, error) {
	cases := make([]models.TestCase, 0, len(rows))
	for i, row := range rows {
		tc := models.TestCase{
			CaseID: pick(row, idColumns),
			Input:  pick(row, inputColumns),
		}
		if tc.CaseID == "" {
			return nil, fmt.Errorf("csv: row %d has no case_id/id value", i+2)
		}
		if exp := pick(row, expectedColumns); exp != "" {
			tc.Expected = exp
		}
		if c := strings.TrimSpace(row[constraintsColumn]); c != "" {
			for _, part := range strings.Split(c, ";") {
				if part = strings.TrimSpace(part); part != "" {
					tc.Constraints = append(tc.Constraints, part)
				}
			}
		}

		for k, v := range row {
			if known(k) || v == "" {
				continue
			}
			if tc.Metadata == nil {
				tc.Metadata = map[string]any{}
			}
			tc.Metadata[k] = v
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func pick(row Row, columns []string) string {
	for _, c := range columns {
		if v, ok := row[c]; ok && v != "" {
			return v
		}
	}
	return ""
}

func known(column string) bool {
	for _, group := range [][]string{idColumns, inputColumns, expectedColumns, {constraintsColumn}} {
		for _, c := range group {
			if c == column {
				return true
			}
		}
	}
	return false
}
