// Package catalog reads and writes product catalogs as xlsx workbooks.
package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Products"

// Columns, in order. Colors and sizes are comma-separated; a color may carry
// its code as "Red=#FF0000".
var header = []interface{}{"category", "name", "description", "price", "sale_price", "stock", "colors", "sizes", "image_url"}

const (
	colCategory = iota
	colName
	colDescription
	colPrice
	colSalePrice
	colStock
	colColors
	colSizes
	colImageURL
	columnCount
)

type Color struct {
	Name string
	Code string
}

// Row is one product in a catalog workbook
type Row struct {
	Line        int // 1-based sheet row, for error messages
	Category    string
	Name        string
	Description string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	Stock       int
	Colors      []Color
	Sizes       []string
	ImageURL    string
}

// RowError reports a sheet row that could not be parsed
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Write renders products, with categories and variants preloaded, as a workbook
func Write(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := productRow(p)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write product %d: %w", p.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func productRow(p model.Product) []interface{} {
	category := ""
	if p.Category != nil {
		category = p.Category.Slug
	}
	salePrice := ""
	if p.SalePrice.Valid {
		salePrice = p.SalePrice.Decimal.String()
	}

	colors := make([]string, 0, len(p.Colors))
	for _, c := range p.Colors {
		if c.Code != "" {
			colors = append(colors, c.Name+"="+c.Code)
		} else {
			colors = append(colors, c.Name)
		}
	}
	sizes := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, s.Name)
	}

	return []interface{}{
		category,
		p.Name,
		p.Description,
		p.Price.String(),
		salePrice,
		p.Stock,
		strings.Join(colors, ", "),
		strings.Join(sizes, ", "),
		p.ImageURL,
	}
}

// Read parses the first sheet of a workbook. The first row is the header.
// Blank rows are skipped; any malformed row fails the whole read.
func Read(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var out []Row
	for i, cells := range rows[1:] {
		line := i + 2
		if isBlank(cells) {
			continue
		}
		row, err := parseRow(cells)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		row.Line = line
		out = append(out, row)
	}
	return out, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(cells []string) (Row, error) {
	for len(cells) < columnCount {
		cells = append(cells, "")
	}
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}

	row := Row{
		Category:    cells[colCategory],
		Name:        cells[colName],
		Description: cells[colDescription],
		Sizes:       splitList(cells[colSizes]),
		ImageURL:    cells[colImageURL],
	}
	if row.Category == "" {
		return Row{}, fmt.Errorf("category is required")
	}
	if row.Name == "" {
		return Row{}, fmt.Errorf("name is required")
	}

	price, err := decimal.NewFromString(cells[colPrice])
	if err != nil {
		return Row{}, fmt.Errorf("invalid price %q", cells[colPrice])
	}
	row.Price = price

	if cells[colSalePrice] != "" {
		sale, err := decimal.NewFromString(cells[colSalePrice])
		if err != nil {
			return Row{}, fmt.Errorf("invalid sale_price %q", cells[colSalePrice])
		}
		row.SalePrice = &sale
	}

	if cells[colStock] != "" {
		stock, err := strconv.Atoi(cells[colStock])
		if err != nil {
			return Row{}, fmt.Errorf("invalid stock %q", cells[colStock])
		}
		row.Stock = stock
	}

	for _, entry := range splitList(cells[colColors]) {
		name, code, _ := strings.Cut(entry, "=")
		row.Colors = append(row.Colors, Color{Name: strings.TrimSpace(name), Code: strings.TrimSpace(code)})
	}
	return row, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
