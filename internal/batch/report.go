package batch

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Report formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// reportHeader is the column layout shared by the CSV and XLSX reports.
var reportHeader = []string{
	"line", "administrative", "survey", "outcome", "canonical_key", "score", "errors", "warnings",
}

// CheckFormat normalizes a report format name and rejects unknown ones.
func CheckFormat(format string) (string, error) {
	f := strings.ToLower(format)
	switch f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("batch: unknown report format %q", format)
	}
}

// WriteReport renders r to w in the given format.
func WriteReport(w io.Writer, format string, r *Report) error {
	f, err := CheckFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatXLSX:
		return writeXLSX(w, r)
	default:
		return writeCSV(w, r)
	}
}

func reportRow(res Result) []string {
	return []string{
		strconv.Itoa(res.Line),
		res.Administrative,
		res.Survey,
		string(res.Outcome),
		res.CanonicalKey,
		strconv.Itoa(res.Score),
		strings.Join(res.Errors, "; "),
		strings.Join(res.Warnings, "; "),
	}
}

func writeCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return eris.Wrap(err, "batch: write csv header")
	}
	for _, res := range r.Results {
		if err := cw.Write(reportRow(res)); err != nil {
			return eris.Wrap(err, "batch: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "batch: flush csv")
	}
	return nil
}

func writeJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "batch: encode json report")
	}
	return nil
}

func writeXLSX(w io.Writer, r *Report) error {
	f := xlsx.NewFile()

	results, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "batch: add results sheet")
	}
	addRow(results, reportHeader)
	for _, res := range r.Results {
		row := results.AddRow()
		row.AddCell().SetInt(res.Line)
		row.AddCell().SetString(res.Administrative)
		row.AddCell().SetString(res.Survey)
		row.AddCell().SetString(string(res.Outcome))
		row.AddCell().SetString(res.CanonicalKey)
		row.AddCell().SetInt(res.Score)
		row.AddCell().SetString(strings.Join(res.Errors, "; "))
		row.AddCell().SetString(strings.Join(res.Warnings, "; "))
	}

	summary, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "batch: add summary sheet")
	}
	addRow(summary, []string{"run_id", r.RunID})
	for _, kv := range []struct {
		name  string
		count int64
	}{
		{"accepted", r.Accepted},
		{"rejected", r.Rejected},
		{"malformed", r.Malformed},
		{"failed", r.Failed},
	} {
		row := summary.AddRow()
		row.AddCell().SetString(kv.name)
		row.AddCell().SetInt64(kv.count)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "batch: write xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
