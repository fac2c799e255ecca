// Package reader loads CSV, TXT and XLSX statement files into header-keyed
// row maps. Real exports prepend disclaimers and metadata above the actual
// table, so the header row is located by scanning, never assumed to be row 0.
package reader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/ylzheng/zhangben/pkg/xlsx"
)

// Row is one data row keyed by header text. Every cell is additionally
// stored under its positional key 列{i}, so position-based mappers can work
// off the same shape as name-based ones.
type Row map[string]string

// timeFragments and amountFragments identify a header row: a row qualifies
// when its joined cell text contains at least one fragment from each set.
var timeFragments = []string{"交易时间", "交易创建时间", "格式化时间", "formatted time"}

var amountFragments = []string{"金额", "金额(元)", "金额（元）", "交易金额", "transaction amount"}

// ReadCSV reads a comma-delimited statement file into rows. Files are
// decoded as UTF-8 (BOM stripped); on invalid UTF-8 the file is re-decoded
// as GBK in strict mode so a wrong-encoding file fails loudly instead of
// importing mojibake.
func ReadCSV(path string) ([]Row, error) {
	content, err := readText(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(content))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return gridToRows(grid), nil
}

// ReadTXT reads a tab-delimited statement file with the same encoding
// fallback and header scan as ReadCSV.
func ReadTXT(path string) ([]Row, error) {
	content, err := readText(path)
	if err != nil {
		return nil, err
	}
	var grid [][]string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		grid = append(grid, strings.Split(line, "\t"))
	}
	return gridToRows(grid), nil
}

// ReadXLSX reads the first worksheet of a workbook into rows, using the same
// header-row scan as the CSV reader.
func ReadXLSX(path string) ([]Row, error) {
	grid, err := xlsx.ReadGrid(path)
	if err != nil {
		return nil, err
	}
	return gridToRows(grid), nil
}

// ReadXLSXGrid exposes the raw cell grid for mappers that address columns by
// position instead of header name.
func ReadXLSXGrid(path string) ([][]string, error) {
	return xlsx.ReadGrid(path)
}

// ReadCSVGrid is the raw-grid counterpart of ReadCSV: no header scan, no
// key mapping, every row kept as-is.
func ReadCSVGrid(path string) ([][]string, error) {
	content, err := readText(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(content))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return grid, nil
}

// readText loads a file as UTF-8, falling back to strict GBK.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s as gbk: %w", path, err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("decode %s: not valid utf-8 or gbk", path)
	}
	return string(decoded), nil
}

// HeaderIndex returns the index of the first row whose joined cell text
// contains both a time-column fragment and an amount-column fragment, or 0
// when no row qualifies.
func HeaderIndex(grid [][]string) int {
	for i, row := range grid {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(c)
		}
		joined := strings.ToLower(strings.Join(cells, ","))
		if containsAny(joined, timeFragments) && containsAny(joined, amountFragments) {
			return i
		}
	}
	return 0
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// gridToRows locates the header row, then converts every following row into
// a Row map. Columns with a blank header cell are reachable only through
// their positional key; entirely blank rows are dropped.
func gridToRows(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}
	headerIdx := HeaderIndex(grid)
	header := make([]string, len(grid[headerIdx]))
	for i, h := range grid[headerIdx] {
		header[i] = strings.TrimSpace(h)
	}

	var out []Row
	for _, cells := range grid[headerIdx+1:] {
		row := Row{}
		blank := true
		n := len(header)
		if len(cells) < n {
			n = len(cells)
		}
		for i := 0; i < n; i++ {
			if header[i] != "" {
				row[header[i]] = cells[i]
			}
			row[posKey(i)] = cells[i]
			if strings.TrimSpace(cells[i]) != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

func posKey(i int) string {
	return fmt.Sprintf("列%d", i)
}

// Get returns the first non-empty value among the named keys, trimmed.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Has reports whether the row carries the key at all, even with an empty
// value.
func (r Row) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys returns the row's column keys in unspecified order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}
