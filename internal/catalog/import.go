package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadCSV reads products from CSV with a header row naming the plu, name,
// price and unit columns.
func ReadCSV(r io.Reader) ([]*Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return parseRows(rows)
}

// ReadXLSX reads products from the first sheet of an Excel workbook laid out
// like the CSV format.
func ReadXLSX(r io.Reader) ([]*Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("getting rows: %w", err)
	}
	return parseRows(rows)
}

// ImportFile loads a .csv or .xlsx catalog file into store and returns the
// number of products saved.
func ImportFile(store Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	var products []*Product
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		products, err = ReadCSV(f)
	case ".xlsx", ".xlsm":
		products, err = ReadXLSX(f)
	default:
		return 0, fmt.Errorf("unsupported catalog format: %q", ext)
	}
	if err != nil {
		return 0, err
	}

	if err := store.SaveMany(products); err != nil {
		return 0, fmt.Errorf("saving products: %w", err)
	}
	return len(products), nil
}

// columns maps header names to the fields they fill
var columns = map[string]string{
	"plu":        "plu",
	"code":       "plu",
	"name":       "name",
	"product":    "name",
	"price":      "price",
	"unit_price": "price",
	"unit":       "unit",
}

func mapColumns(header []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if field, ok := columns[name]; ok {
			if _, seen := columnMap[field]; !seen {
				columnMap[field] = i
			}
		}
	}
	for _, required := range []string{"plu", "name", "price"} {
		if _, ok := columnMap[required]; !ok {
			return nil, fmt.Errorf("catalog header is missing the %q column", required)
		}
	}
	return columnMap, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRows(rows [][]string) ([]*Product, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog file is empty")
	}
	columnMap, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}
	unitCol, hasUnit := columnMap["unit"]
	if !hasUnit {
		unitCol = -1
	}

	var products []*Product
	for i, row := range rows[1:] {
		line := i + 2
		if isEmptyRow(row) {
			continue
		}

		plu, err := strconv.Atoi(cell(row, columnMap["plu"]))
		if err != nil || plu < 0 {
			slog.Warn("Skipping catalog row with invalid PLU", "row", line, "value", cell(row, columnMap["plu"]))
			continue
		}
		price, err := strconv.ParseFloat(cell(row, columnMap["price"]), 64)
		if err != nil || price < 0 {
			slog.Warn("Skipping catalog row with invalid price", "row", line, "plu", plu, "value", cell(row, columnMap["price"]))
			continue
		}
		name := cell(row, columnMap["name"])
		if name == "" {
			slog.Warn("Skipping catalog row without a name", "row", line, "plu", plu)
			continue
		}

		products = append(products, &Product{
			PLU:   plu,
			Name:  name,
			Price: price,
			Unit:  cell(row, unitCol),
		})
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("no valid products found (parsed %d rows)", len(rows)-1)
	}
	return products, nil
}
