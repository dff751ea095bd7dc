package core

import (
	"encoding/csv"
	"fmt"
	"io"
)

// TemplateFileName is the suggested name for the downloadable template.
const TemplateFileName = "clients-template.csv"

// templateRows is the header line followed by two example clients.
var templateRows = [][]string{
	{HeaderCompanyName, HeaderPostalCode, HeaderCity},
	{"Mustermann Steuerberatung GmbH", "10115", "Berlin"},
	{"Beispiel & Partner KG", "80331", "München"},
}

// WriteTemplate writes the import template as CSV to w.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(templateRows); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
