// Package tabular reads and writes the spreadsheet tables exchanged with the
// operators: CSV (comma or semicolon separated) and xlsx workbooks.
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

func New(header []string, rows [][]string) Table {
	t := Table{Header: header, Rows: rows}
	t.index = headerIndex(header)
	return t
}

// Get returns the trimmed value of the first listed column present in the row.
func (t Table) Get(row []string, names ...string) string {
	idx := t.index
	if idx == nil {
		idx = headerIndex(t.Header)
	}
	for _, name := range names {
		pos, ok := idx[NormalizeHeader(name)]
		if !ok || pos >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[pos]); v != "" {
			return v
		}
	}
	return ""
}

func (t Table) Has(name string) bool {
	idx := t.index
	if idx == nil {
		idx = headerIndex(t.Header)
	}
	_, ok := idx[NormalizeHeader(name)]
	return ok
}

// Missing lists the required columns absent from the header.
func (t Table) Missing(required ...string) []string {
	var out []string
	for _, name := range required {
		if !t.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Read picks the decoder from the file extension.
func Read(filename string, r io.Reader) (Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func ReadCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Table{}, err
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comma = sniffComma(first)

	headers, err := reader.Read()
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, err
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return New(headers, rows), nil
}

// ReadXLSX reads the first sheet of the workbook. Cells come back as stored,
// not as displayed: 1825 formatted as "#,##0" reads "1825" and dates read as
// serial numbers.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Table{}, errors.New("sheet is empty")
	}
	var data [][]string
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		data = append(data, row)
	}
	return New(rows[0], data), nil
}

// NormalizeHeader lower-cases, trims, drops a BOM and folds accents, so
// "Orgão Origem" and "ORGAO ORIGEM" name the same column.
func NormalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	h = strings.ToLower(strings.Join(strings.Fields(h), " "))
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), h)
	if err != nil {
		return h
	}
	return folded
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		key := NormalizeHeader(h)
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

func sniffComma(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
