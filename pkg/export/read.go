package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is the raw cell text of one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadSheets reads every worksheet of an .xlsx document in workbook order.
func ReadSheets(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("export: open: %w", err)
	}
	defer f.Close()

	var out []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("export: sheet %s: %w", name, err)
		}
		out = append(out, Sheet{Name: name, Rows: rows})
	}
	return out, nil
}
