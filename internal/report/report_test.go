package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"certsentry/internal/certs"
)

func info(name string, notAfter time.Time, daysLeft int) certs.Info {
	return certs.Info{
		CommonName:   name,
		Organization: "Org",
		SerialHex:    "AB12",
		NotBefore:    notAfter.AddDate(-1, 0, 0),
		NotAfter:     notAfter,
		DaysLeft:     daysLeft,
	}
}

func TestSummaryAllClear(t *testing.T) {
	infos := []certs.Info{info("Fresh", time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC), 200)}
	assert.Equal(t, "✅ All certificates are valid or expire far in the future.", Summary(infos))
}

func TestSummarySections(t *testing.T) {
	infos := []certs.Info{
		info("Gone", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), -7),
		info("Closing", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 12),
		info("Fine", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), 300),
	}

	msg := Summary(infos)
	assert.Contains(t, msg, "❌ Expired certificates:")
	assert.Contains(t, msg, "👤 Gone — 10.01.2026 (expired 7 d.)")
	assert.Contains(t, msg, "⚠️ Expiring soon (30 days):")
	assert.Contains(t, msg, "👤 Closing — 15.03.2026 - days left – 12.")
	assert.NotContains(t, msg, "Fine")
}

func TestSummaryBoundary(t *testing.T) {
	// Exactly at the threshold still warns; zero days left is not expired.
	infos := []certs.Info{
		info("Edge", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), WarnThresholdDays),
		info("Today", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 0),
	}

	msg := Summary(infos)
	assert.NotContains(t, msg, "❌")
	assert.Equal(t, 2, strings.Count(msg, "👤"))
}

func TestCountExpired(t *testing.T) {
	infos := []certs.Info{
		info("A", time.Now(), -1),
		info("B", time.Now(), 0),
		info("C", time.Now(), 5),
	}
	assert.Equal(t, 1, CountExpired(infos))
}

func TestExcelReport(t *testing.T) {
	infos := []certs.Info{
		info("Later", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), 300),
		info("Sooner", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 12),
	}

	buf, err := Excel(infos)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, headers, rows[0])

	// Sorted by expiry ascending.
	assert.Equal(t, "Sooner", rows[1][0])
	assert.Equal(t, "15.03.2026", rows[1][4])
	assert.Equal(t, "12", rows[1][5])
	assert.Equal(t, "Later", rows[2][0])
}

func TestExcelEmpty(t *testing.T) {
	buf, err := Excel(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1, "headers only")
}
