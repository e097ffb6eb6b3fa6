// Package importer reads flashcards from spreadsheet files.
//
// Column A is the question, B the answer and C an optional image URL. A first
// row whose question cell reads "question" is treated as a header.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxRows caps how many cards a single file may add.
const MaxRows = 1000

var ErrUnsupportedFormat = errors.New("file must be .xlsx or .csv")

// Row is one card read from the file. Line is 1-based.
type Row struct {
	Line         int
	QuestionText string
	AnswerText   string
	ImageURL     string
}

// Result holds the usable rows and a message for every row that was skipped.
type Result struct {
	Rows   []Row
	Errors []string
}

// Parse picks the reader from the file extension.
func Parse(r io.Reader, filename string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return parseExcel(r)
	case ".csv":
		return parseCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseExcel(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return collect(rows)
}

func parseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return collect(records)
}

func collect(records [][]string) (*Result, error) {
	result := &Result{}
	for i, record := range records {
		line := i + 1
		if i == 0 && isHeader(record) {
			continue
		}
		if isBlank(record) {
			continue
		}
		if len(result.Rows) >= MaxRows {
			return nil, fmt.Errorf("file has more than %d cards", MaxRows)
		}

		row := Row{
			Line:         line,
			QuestionText: cell(record, 0),
			AnswerText:   cell(record, 1),
			ImageURL:     cell(record, 2),
		}
		if row.QuestionText == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: question is empty", line))
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isHeader(record []string) bool {
	return strings.EqualFold(cell(record, 0), "question") || strings.EqualFold(cell(record, 0), "question_text")
}

func isBlank(record []string) bool {
	for i := range record {
		if cell(record, i) != "" {
			return false
		}
	}
	return true
}
