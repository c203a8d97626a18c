package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Date layouts tried during type inference, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ReadCSV parses a CSV stream with a header row into a Table, inferring a
// type for each column from its non-empty cells: numeric if every cell parses
// as a number, boolean for true/false, temporal for recognized date layouts,
// text otherwise. Empty cells become nulls.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var raw [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(raw)+2, err)
		}
		raw = append(raw, rec)
	}

	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{
			Name: strings.TrimSpace(h),
			Type: inferColumnType(raw, i),
		}
	}

	rows := make([][]any, len(raw))
	for r, rec := range raw {
		row := make([]any, len(columns))
		for c := range columns {
			row[c] = convertCell(strings.TrimSpace(rec[c]), columns[c].Type)
		}
		rows[r] = row
	}

	return New(name, columns, rows)
}

func inferColumnType(rows [][]string, col int) Type {
	sawValue := false
	numeric, boolean, temporal := true, true, true

	for _, rec := range rows {
		cell := strings.TrimSpace(rec[col])
		if cell == "" {
			continue
		}
		sawValue = true
		if numeric {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
			}
		}
		if boolean && !isBoolLiteral(cell) {
			boolean = false
		}
		if temporal && !isTimeLiteral(cell) {
			temporal = false
		}
		if !numeric && !boolean && !temporal {
			return TypeText
		}
	}

	switch {
	case !sawValue:
		return TypeText
	case boolean:
		return TypeBool
	case numeric:
		return TypeNumeric
	case temporal:
		return TypeTime
	default:
		return TypeText
	}
}

func convertCell(cell string, typ Type) any {
	if cell == "" {
		return nil
	}
	switch typ {
	case TypeNumeric:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil
		}
		return f
	case TypeBool:
		return strings.EqualFold(cell, "true")
	case TypeTime:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, cell); err == nil {
				return ts
			}
		}
		return nil
	default:
		return cell
	}
}

func isBoolLiteral(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func isTimeLiteral(s string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
