// Package xlsxemit writes a finished Package as a single .xlsx workbook,
// one sheet per resource, the mirror image of a spreadsheet loader that
// reads workbooks the other direction.
package xlsxemit

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kindly/csvs-convert/internal/emit/rowconv"
	"github.com/kindly/csvs-convert/internal/model"
)

// sheetNameLimit is Excel's hard cap on sheet name length; resource names
// longer than this are truncated so excelize doesn't reject the sheet.
const sheetNameLimit = 31

// WritePackage writes pkg as a workbook to path, one sheet per resource in
// Package order, with a bold header row and one row per data row.
func WritePackage(path string, pkg *model.Package, rows map[string][][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	boldHeader, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	firstSheetWritten := false
	for _, res := range pkg.Resources {
		sheetName := sheetName(res.Name)
		index, err := f.NewSheet(sheetName)
		if err != nil {
			return fmt.Errorf("creating sheet for %s: %w", res.Name, err)
		}
		if !firstSheetWritten {
			f.SetActiveSheet(index)
			firstSheetWritten = true
		}

		for col, field := range res.Schema.Fields {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheetName, cell, field.Name); err != nil {
				return err
			}
		}
		headerEnd, _ := excelize.CoordinatesToCellName(len(res.Schema.Fields), 1)
		if len(res.Schema.Fields) > 0 {
			if err := f.SetCellStyle(sheetName, "A1", headerEnd, boldHeader); err != nil {
				return err
			}
		}

		for r, row := range rows[res.Name] {
			for col, field := range res.Schema.Fields {
				if col >= len(row) {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				v := rowconv.Convert(row[col], field)
				if err := f.SetCellValue(sheetName, cell, v); err != nil {
					return err
				}
			}
		}
	}

	// excelize always starts a new file with an unused "Sheet1"; drop it
	// once every resource has its own sheet, unless there were no resources.
	if firstSheetWritten {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func sheetName(name string) string {
	if len(name) <= sheetNameLimit {
		return name
	}
	return name[:sheetNameLimit]
}
