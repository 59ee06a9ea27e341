package tabular

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Palette cycles over the distinct values of the highlighted column.
var Palette = []string{
	"990000", "006600", "996600", "003366",
	"660066", "663300", "003300", "000066",
}

type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
	// HighlightColumn names a column whose distinct values get their own
	// bold font colour. Empty disables highlighting.
	HighlightColumn string
}

// WriteXLSX renders the sheets into a single workbook.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return err
		}
		if err := writeSheet(f, sh, headerStyle); err != nil {
			return fmt.Errorf("sheet %s: %w", sh.Name, err)
		}
	}
	return f.Write(w)
}

// XLSXBytes is WriteXLSX into memory.
func XLSXBytes(sheets ...Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sheets...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sh Sheet, headerStyle int) error {
	header := make([]any, len(sh.Header))
	for i, h := range sh.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
		return err
	}
	if len(sh.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(sh.Header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sh.Name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	highlight := -1
	for i, h := range sh.Header {
		if sh.HighlightColumn != "" && NormalizeHeader(h) == NormalizeHeader(sh.HighlightColumn) {
			highlight = i
			break
		}
	}
	styles := map[string]int{}

	for r, row := range sh.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
			return err
		}
		if highlight < 0 || highlight >= len(row) {
			continue
		}
		key := fmt.Sprint(row[highlight])
		if key == "" {
			continue
		}
		style, ok := styles[key]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{
				Bold:  true,
				Color: Palette[len(styles)%len(Palette)],
			}})
			if err != nil {
				return err
			}
			styles[key] = style
		}
		target, err := excelize.CoordinatesToCellName(highlight+1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sh.Name, target, target, style); err != nil {
			return err
		}
	}
	return nil
}
