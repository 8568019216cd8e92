package extractor

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX is the fallback path for spreadsheets when the structured
// DriveClient.ReadSheet API is unavailable (non-native .xlsx uploads, or a
// Sheets API failure upstream in the ingestion pipeline).
func extractXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		b.WriteString("[Sheet: " + sheetName + "]\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
