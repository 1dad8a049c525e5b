// Package batch verifies many parcels listed in a manifest and renders the
// outcome as a report.
package batch

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Item is one manifest row: an administrative and a survey document path.
type Item struct {
	Line           int    `json:"line"`
	Administrative string `json:"administrative"`
	Survey         string `json:"survey"`
}

// ReadManifest reads a .csv or .xlsx manifest of admin,survey path pairs.
// A header row naming those columns is skipped. Relative paths resolve
// against the manifest's directory.
func ReadManifest(path string) ([]Item, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows, filepath.Dir(path))
}

func parseRows(rows [][]string, baseDir string) ([]Item, error) {
	var items []Item
	for i, row := range rows {
		line := i + 1
		if isBlank(row) {
			continue
		}
		if len(row) < 2 {
			return nil, eris.Errorf("batch: manifest line %d: want 2 columns, got %d", line, len(row))
		}
		admin := strings.TrimSpace(row[0])
		survey := strings.TrimSpace(row[1])
		if i == 0 && isHeader(admin, survey) {
			continue
		}
		if admin == "" || survey == "" {
			return nil, eris.Errorf("batch: manifest line %d: empty path", line)
		}
		items = append(items, Item{
			Line:           line,
			Administrative: resolve(baseDir, admin),
			Survey:         resolve(baseDir, survey),
		})
	}
	return items, nil
}

func isHeader(admin, survey string) bool {
	a := strings.ToLower(admin)
	s := strings.ToLower(survey)
	return (a == "admin" || a == "administrative") && s == "survey"
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open manifest %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read manifest row")
		}
		rows = append(rows, record)
	}
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open manifest %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("batch: manifest %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
