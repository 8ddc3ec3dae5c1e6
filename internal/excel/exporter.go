package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/arabot/internal/leaderboard"
)

// sheetName is the name of the exported worksheet
const sheetName = "Leaderboard"

// ExportLeaderboard renders ranked leaderboard entries into an in-memory
// .xlsx workbook, for the /export admin command.
func ExportLeaderboard(entries []leaderboard.Entry, at time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"Rank", "Name", "User ID", "Points", "Worksheet Streak"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header %q: %w", h, err)
		}
	}

	for row, e := range entries {
		values := []interface{}{row + 1, e.Name, e.ID, e.Points, e.Streak}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+1, err)
			}
		}
	}

	// Export timestamp below the table.
	cell, err := excelize.CoordinatesToCellName(1, len(entries)+3)
	if err != nil {
		return nil, fmt.Errorf("failed to compute footer cell: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, "Exported: "+at.UTC().Format("2006-01-02 15:04 UTC")); err != nil {
		return nil, fmt.Errorf("failed to write footer: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
