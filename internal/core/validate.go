package core

// validate.go checks parsed records against the client field rules.
//
// Every rule is applied to every record independently, so a single record can
// produce more than one error. The validator never stops at the first problem:
// the preview shows all of them at once.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxCompanyNameLength = 255
	MaxCityLength        = 255
	MinPostalCode        = 10000
	MaxPostalCode        = 99999
)

// Validation messages.
const (
	MsgRequired          = "required"
	MsgMaxLengthExceeded = "max length exceeded"
	MsgPostalCodeFormat  = "must be a 5-digit number"
)

// firstDataRow is the spreadsheet row of records[0]: row 1 is the header.
const firstDataRow = 2

// RowNumber returns the spreadsheet row of records[index].
func RowNumber(index int) int {
	return index + firstDataRow
}

// ValidationError is one rule violation, addressed by spreadsheet row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// Validate returns every rule violation in records, ordered by record and
// then by rule. A nil result means the records can be imported.
func Validate(records []Record) []ValidationError {
	var errs []ValidationError
	for i, rec := range records {
		row := RowNumber(i)

		if strings.TrimSpace(rec.CompanyName) == "" {
			errs = append(errs, ValidationError{Row: row, Field: FieldCompanyName, Message: MsgRequired})
		}
		if utf8.RuneCountInString(rec.CompanyName) > MaxCompanyNameLength {
			errs = append(errs, ValidationError{Row: row, Field: FieldCompanyName, Message: MsgMaxLengthExceeded})
		}
		if rec.PostalCode != nil && (*rec.PostalCode < MinPostalCode || *rec.PostalCode > MaxPostalCode) {
			errs = append(errs, ValidationError{Row: row, Field: FieldPostalCode, Message: MsgPostalCodeFormat})
		}
		if rec.City != nil && utf8.RuneCountInString(*rec.City) > MaxCityLength {
			errs = append(errs, ValidationError{Row: row, Field: FieldCity, Message: MsgMaxLengthExceeded})
		}
	}
	return errs
}

// ErrorsByRow groups errors by row for highlighting rows in a preview table.
func ErrorsByRow(errs []ValidationError) map[int][]ValidationError {
	byRow := make(map[int][]ValidationError, len(errs))
	for _, e := range errs {
		byRow[e.Row] = append(byRow[e.Row], e)
	}
	return byRow
}
