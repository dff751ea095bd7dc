package core

// parse.go turns the text of an import file into records.
//
// The first line is the header. Columns are mapped to record fields by
// header name, so column order in the file does not matter. Quoted fields are
// tokenized properly: a comma inside quotes stays part of the value.
//
// Every line after the header is one record, even when all its cells are
// blank, so the validator can report it by row. Quoted fields never span
// lines.
//
// Parse never fails because of cell content. Stray quotes inside a field are
// kept as text. A postal code that is not an integer is left out of the
// record. The only failure is a quoted field that is never closed on its line,
// which is returned as a *ParseError.

import (
	"encoding/csv"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// utf8BOM is stripped from the start of the text if present.
const utf8BOM = "\ufeff"

// Parse converts CSV text into records, one per data line.
// Fewer than two lines (header only, or nothing) yields an empty slice.
func Parse(text string) ([]Record, error) {
	rows, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []Record{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = cleanCell(h)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, buildRecord(header, row))
	}
	return records, nil
}

// tokenize splits text into lines and each line into raw fields. Trailing
// blank lines are dropped; a blank line in between becomes an empty row so a
// record's index + 2 stays its line in the file.
func tokenize(text string) ([][]string, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	text = norm.NFC.String(text)

	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	rows := make([][]string, len(lines))
	for i, line := range lines {
		row, err := splitLine(strings.TrimSuffix(line, "\r"))
		if err != nil {
			err.Line = i + 1
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// splitLine splits one line into fields. A comma inside a quoted field stays
// in the field and a stray quote elsewhere is kept as text. A quoted field
// that is never closed is the only error.
func splitLine(line string) ([]string, *ParseError) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	row, err := r.Read()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, &ParseError{Column: csvErr.Column, Err: csvErr.Err}
		}
		return nil, &ParseError{Err: err}
	}

	for i := range row {
		_, col := r.FieldPos(i)
		rest := line[col-1:]
		if strings.HasPrefix(rest, `"`) && !strings.Contains(rest[1:], `"`) {
			return nil, &ParseError{Column: col, Err: csv.ErrQuote}
		}
	}
	return row, nil
}

// buildRecord pairs each header name with the value at the same position.
// Positions missing from a short row leave the field absent.
func buildRecord(header, row []string) Record {
	var rec Record
	for i, name := range header {
		if i >= len(row) {
			break
		}
		value := cleanCell(row[i])

		switch {
		case strings.EqualFold(name, HeaderCompanyName):
			rec.CompanyName = value
		case strings.EqualFold(name, HeaderPostalCode):
			rec.PostalCode = parsePostalCode(value)
		case strings.EqualFold(name, HeaderCity):
			city := value
			rec.City = &city
		case name == "":
			// Unnamed columns cannot be addressed and are dropped.
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[name] = value
		}
	}
	return rec
}

// parsePostalCode returns nil if value is not an integer.
func parsePostalCode(value string) *int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

// cleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes the Excel text prefix (="...")
// - Removes one surrounding quote character on each side
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)

	return strings.TrimSpace(s)
}
