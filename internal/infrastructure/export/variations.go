package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/catalogrecon/backend/internal/domain"
)

const (
	VariationsSheet = "Variations"
	GroupsSheet     = "Groups"
)

// ContentType is the MIME type of the workbook produced by VariationWorkbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	variationHeader = []interface{}{"Group", "Base Name", "SKU Pattern", "Product ID", "SKU", "Name", "Price", "Stock Status", "Attributes"}
	groupHeader     = []interface{}{"Group", "Base Name", "SKU Pattern", "Products", "Attributes"}
)

// VariationWorkbook renders detected groups as an XLSX workbook for merchandiser review.
// The Variations sheet has one row per member; the Groups sheet one row per group.
func VariationWorkbook(groups []domain.VariationGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), VariationsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(GroupsSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, VariationsSheet, variationHeader, bold); err != nil {
		return nil, err
	}
	if err := writeHeader(f, GroupsSheet, groupHeader, bold); err != nil {
		return nil, err
	}

	row := 2
	for i, group := range groups {
		groupNo := i + 1
		attributes := formatAttributes(group.Attributes)

		summary := []interface{}{groupNo, group.BaseName, group.BaseSKUPattern, group.ProductCount(), attributes}
		if err := setRow(f, GroupsSheet, groupNo+1, summary); err != nil {
			return nil, err
		}

		for _, p := range group.Products {
			member := []interface{}{
				groupNo,
				group.BaseName,
				group.BaseSKUPattern,
				p.ID,
				p.SKU,
				p.Name,
				p.Price,
				string(p.StockStatus),
				attributes,
			}
			if err := setRow(f, VariationsSheet, row, member); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// formatAttributes renders axes as "Size: Small, Large; Color: Red, Blue"
func formatAttributes(attrs []domain.VariationAttribute) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, attr.Name+": "+strings.Join(attr.Values, ", "))
	}
	return strings.Join(parts, "; ")
}
