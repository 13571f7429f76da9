// Package ingest parses roster files supplied by operators into attorney
// records ready for import.
package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Record is one parsed roster row
type Record struct {
	Name  string
	Title string
	Firm  string
	City  string
	Email string
}

// ErrMissingHeader is returned when the input has no header row
var ErrMissingHeader = errors.New("roster file is missing a header row")

// ErrMissingNameColumn is returned when the header has no name column
var ErrMissingNameColumn = errors.New("roster file is missing a name column")

var headerAliases = map[string]string{
	"name":          "name",
	"attorney":      "name",
	"attorney name": "name",
	"full name":     "name",
	"title":         "title",
	"position":      "title",
	"firm":          "firm",
	"law firm":      "firm",
	"company":       "firm",
	"city":          "city",
	"location":      "city",
	"email":         "email",
	"email address": "email",
}

// ParseRoster reads a CSV roster with a header row and returns one record per
// data row. Header names are matched case-insensitively against common
// aliases. Rows with an empty name are skipped; unrecognized columns are
// ignored.
func ParseRoster(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read roster header")
	}

	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := headerAliases[key]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}

	nameIdx, ok := columns["name"]
	if !ok {
		return nil, ErrMissingNameColumn
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read roster row")
		}

		name := fieldAt(row, nameIdx)
		if name == "" {
			continue
		}

		record := Record{Name: name}
		if idx, ok := columns["title"]; ok {
			record.Title = fieldAt(row, idx)
		}
		if idx, ok := columns["firm"]; ok {
			record.Firm = fieldAt(row, idx)
		}
		if idx, ok := columns["city"]; ok {
			record.City = fieldAt(row, idx)
		}
		if idx, ok := columns["email"]; ok {
			record.Email = fieldAt(row, idx)
		}

		records = append(records, record)
	}

	return records, nil
}

func fieldAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
