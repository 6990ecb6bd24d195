// Package importer decodes bulk expense uploads from CSV and XLSX files.
//
// A file needs "amount" and "category" columns; "description" and "date" are
// optional. Header names are matched case-insensitively. Rows that fail to
// decode are reported as skips and never block the valid rows.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

// DefaultMaxBytes caps an upload when no limit is configured.
const DefaultMaxBytes = 5 << 20

var (
	ErrInvalidFormat  = errors.New("invalid import file")
	ErrMissingColumns = fmt.Errorf("%w: amount and category columns are required", ErrInvalidFormat)
	ErrTooLarge       = fmt.Errorf("%w: file too large", ErrInvalidFormat)
)

// Row is one decoded expense. Timestamp is zero when the file has no date.
type Row struct {
	Line        int
	Amount      core.Money
	Category    string
	Description string
	Timestamp   time.Time
}

// Skip records a data line that could not be decoded.
type Skip struct {
	Line   int
	Reason string
}

type Result struct {
	// Total counts data lines, excluding the header and blank lines.
	Total   int
	Rows    []Row
	Skipped []Skip
}

// Expenses converts the decoded rows for storage. UserID is left for the
// caller to set.
func (r Result) Expenses() []core.Expense {
	out := make([]core.Expense, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, core.Expense{
			Amount:      row.Amount,
			Category:    row.Category,
			Description: row.Description,
			Timestamp:   row.Timestamp,
		})
	}
	return out
}

// Decoder turns an upload into rows.
type Decoder struct {
	MaxBytes int64
}

func NewDecoder(maxBytes int64) *Decoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Decoder{MaxBytes: maxBytes}
}

// Supported reports whether filename has an extension Decode understands.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Decode picks the format from filename's extension.
func (d *Decoder) Decode(filename string, data []byte) (Result, error) {
	if int64(len(data)) > d.MaxBytes {
		return Result{}, ErrTooLarge
	}

	var (
		records []record
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx":
		records, err = readXLSX(data)
	default:
		return Result{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidFormat, filepath.Ext(filename))
	}
	if err != nil {
		return Result{}, err
	}
	return decodeRecords(records)
}

// record is one raw row with its 1-based line in the source file.
type record struct {
	line   int
	fields []string
}

func readCSV(data []byte) ([]record, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records []record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, record{line: line, fields: rec})
	}
	return records, nil
}

func readXLSX(data []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidFormat)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	records := make([]record, 0, len(rows))
	for i, row := range rows {
		records = append(records, record{line: i + 1, fields: row})
	}
	return records, nil
}

type columns struct {
	amount, category, description, date int
}

func findColumns(header []string) (columns, error) {
	cols := columns{amount: -1, category: -1, description: -1, date: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "amount":
			cols.amount = i
		case "category":
			cols.category = i
		case "description":
			cols.description = i
		case "date":
			cols.date = i
		}
	}
	if cols.amount < 0 || cols.category < 0 {
		return cols, ErrMissingColumns
	}
	return cols, nil
}

func decodeRecords(records []record) (Result, error) {
	if len(records) == 0 {
		return Result{}, ErrMissingColumns
	}
	cols, err := findColumns(records[0].fields)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, rec := range records[1:] {
		if blank(rec.fields) {
			continue
		}
		res.Total++

		row, reason := decodeRow(rec.fields, cols)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skip{Line: rec.line, Reason: reason})
			continue
		}
		row.Line = rec.line
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func decodeRow(rec []string, cols columns) (Row, string) {
	amount, err := core.ParseAmount(cell(rec, cols.amount))
	if err != nil {
		return Row{}, "invalid amount"
	}

	category := core.NormalizeCategory(cell(rec, cols.category))
	if category == "" {
		return Row{}, "empty category"
	}
	if utf8.RuneCountInString(category) > core.MaxCategoryLength {
		return Row{}, "category too long"
	}

	row := Row{
		Amount:      amount,
		Category:    category,
		Description: strings.TrimSpace(cell(rec, cols.description)),
	}

	if utf8.RuneCountInString(row.Description) > core.MaxDescriptionLength {
		return Row{}, "description too long"
	}

	if raw := cell(rec, cols.date); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			return Row{}, "invalid date"
		}
		row.Timestamp = ts
	}
	return row, ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if !core.TimestampInRange(t) {
				return time.Time{}, fmt.Errorf("date %q outside %d-%d", s, core.MinYear, core.MaxYear)
			}
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
