package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/export"
	"github.com/sbrg/gds/pkg/table"
)

// exportCommand creates the export command, which packs JSON or CSV tables
// into one workbook, one sheet per input.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [table...]",
		Short: "Export JSON or CSV tables to an Excel workbook, or one table to CSV",
		Example: `  gds export radiate.json traces.csv -o results.xlsx
  gds export radiate.json -o radiate.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(filepath.Ext(output), ".csv") {
				return exportCSV(args, output)
			}
			wb, err := export.NewWorkbook()
			if err != nil {
				return err
			}
			defer wb.Close()

			for _, path := range args {
				t, err := readTable(path)
				if err != nil {
					return err
				}
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				sheet, err := wb.AddTable(name, t)
				if err != nil {
					return err
				}
				loggerFromContext(cmd.Context()).Debug("added sheet", "sheet", sheet, "rows", t.Len())
			}
			if err := wb.Save(output); err != nil {
				return err
			}
			printSuccess("Exported %d sheet(s)", len(wb.Sheets()))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "results.xlsx", "output workbook")
	return cmd
}

// readTable reads a table written by the json format, or a CSV file.
func readTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var t *table.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err = table.ReadCSV(f)
	case ".json":
		t, err = table.ReadJSON(f)
	default:
		return nil, fmt.Errorf("%s: unsupported table format (want .json or .csv)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func exportCSV(inputs []string, output string) error {
	if len(inputs) != 1 {
		return fmt.Errorf("csv output takes exactly one table, got %d", len(inputs))
	}
	t, err := readTable(inputs[0])
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Exported %d row(s)", t.Len())
	printFile(output)
	return nil
}
