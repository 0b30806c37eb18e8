package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const customerSheet = "Customers"

var customerHeadings = []any{"Name", "Room", "Total Spent", "Orders", "Manual Override"}

// CustomersWorkbook renders customer rows as a single-sheet XLSX file.
func CustomersWorkbook(title string, rows []CustomerRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", customerSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "hostelmart"}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}
	if err := f.SetSheetRow(customerSheet, "A1", &customerHeadings); err != nil {
		return nil, fmt.Errorf("write headings: %w", err)
	}
	for i, row := range rows {
		spent, _ := row.TotalSpent.Float64()
		values := []any{row.Name, row.Room, spent, row.OrdersCount, row.Manual}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(customerSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
