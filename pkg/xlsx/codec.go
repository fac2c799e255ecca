// Package xlsx is the spreadsheet codec for statement files and report
// output. It exposes a deliberately narrow contract — read a workbook's first
// sheet as a cell grid, write a header plus rows as a single sheet — so the
// rest of the pipeline never touches workbook internals.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadGrid reads the first worksheet into a dense rows-of-cells grid.
// Cells are returned raw (unformatted), so spreadsheet dates arrive as
// serial numbers rather than locale-formatted text.
func ReadGrid(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// Write creates a single-sheet workbook with a header row followed by data
// rows. All cells are written as strings; this is a report format, not a
// typed spreadsheet.
func Write(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
