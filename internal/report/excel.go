package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"certsentry/internal/certs"
)

// FileName is the name under which the workbook is sent to the user.
const FileName = "certificates_report.xlsx"

const sheetName = "Certificates"

var headers = []string{"Name", "Organization", "Serial number", "Valid from", "Valid until", "Days left"}

// Row fill colors: red for expired, orange for expiring soon, green otherwise.
const (
	fillExpired = "FFCCCC"
	fillSoon    = "FFDDAA"
	fillOK      = "CCFFCC"
)

// Excel renders the certificate list as a workbook, rows sorted by expiry
// date ascending and color-coded by how close each certificate is to it.
func Excel(infos []certs.Info) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	styles, err := rowStyles(f)
	if err != nil {
		return nil, err
	}

	sorted := append([]certs.Info(nil), infos...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].NotAfter.Before(sorted[j].NotAfter)
	})

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for i, ci := range sorted {
		row := i + 2
		values := []interface{}{
			ci.CommonName,
			ci.Organization,
			ci.SerialHex,
			ci.NotBefore.Format(dateLayout),
			ci.NotAfter.Format(dateLayout),
			ci.DaysLeft,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		last, err := excelize.CoordinatesToCellName(len(values), row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, last, styleFor(styles, ci.DaysLeft)); err != nil {
			return nil, fmt.Errorf("style row %d: %w", row, err)
		}

		for col, v := range values {
			if l := len(fmt.Sprint(v)); l > widths[col] {
				widths[col] = l
			}
		}
	}

	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, float64(w+2)); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}

type fillStyles struct {
	expired int
	soon    int
	ok      int
}

func rowStyles(f *excelize.File) (*fillStyles, error) {
	mk := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
	}

	var s fillStyles
	var err error
	if s.expired, err = mk(fillExpired); err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if s.soon, err = mk(fillSoon); err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if s.ok, err = mk(fillOK); err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	return &s, nil
}

func styleFor(s *fillStyles, daysLeft int) int {
	switch {
	case daysLeft < 0:
		return s.expired
	case daysLeft <= WarnThresholdDays:
		return s.soon
	default:
		return s.ok
	}
}
