package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingHeader     = errors.New("missing header row")
)

// numberRe accepts plain decimal notation only, so values like "NaN", "0x10"
// or "2024-01-01" stay strings.
var numberRe = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// Decode picks a decoder by file extension. Files without an extension are
// read as CSV.
func Decode(filename string, r io.Reader) ([]models.RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return DecodeCSV(r)
	case ".xlsx":
		return DecodeXLSX(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// DecodeCSV reads a header row and one RawRow per data row. Blank lines are
// skipped; a row whose field count differs from the header fails the file.
func DecodeCSV(r io.Reader) ([]models.RawRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return toRows(records, false)
}

// DecodeXLSX reads the first sheet of a workbook. Spreadsheet rows drop
// trailing empty cells, so short rows are padded rather than rejected.
func DecodeXLSX(r io.Reader) ([]models.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingHeader
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toRows(records, true)
}

func toRows(records [][]string, pad bool) ([]models.RawRow, error) {
	var header []string
	rows := make([]models.RawRow, 0, len(records))
	for i, rec := range records {
		if blank(rec) {
			continue
		}
		if header == nil {
			header = make([]string, len(rec))
			for j, h := range rec {
				header[j] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			}
			continue
		}
		if len(rec) > len(header) || (!pad && len(rec) != len(header)) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", i+1, len(header), len(rec))
		}
		row := make(models.RawRow, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			var v string
			if j < len(rec) {
				v = rec[j]
			}
			row[h] = typed(v)
		}
		rows = append(rows, row)
	}
	if header == nil {
		return nil, ErrMissingHeader
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// typed is best-effort typing: numbers become float64, true/false become
// bool, empty cells become nil, everything else stays a trimmed string.
func typed(s string) any {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil
	case numberRe.MatchString(s):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	}
	return s
}
