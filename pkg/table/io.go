package table

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
)

type document struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// WriteJSON writes t as {"columns":[{name,type}],"rows":[[...]]}. Column
// order and types survive a ReadJSON round trip.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Columns: t.Schema(), Rows: t.Rows()}); err != nil {
		return fmt.Errorf("table: encode: %w", err)
	}
	return nil
}

// ReadJSON reads a table written by WriteJSON.
func ReadJSON(r io.Reader) (*Table, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("table: decode: %w", err)
	}
	return FromRows(doc.Columns, doc.Rows)
}

// WriteCSV writes a header row followed by the data rows.
func (t *Table) WriteCSV(w io.Writer) error {
	if err := t.df.WriteCSV(w); err != nil {
		return fmt.Errorf("table: write csv: %w", err)
	}
	return nil
}

// ReadCSV reads a CSV file with a header row. Column types are inferred.
func ReadCSV(r io.Reader) (*Table, error) {
	return wrap(dataframe.ReadCSV(r))
}
