package spreadsheet

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/infra/logger"
)

var header = []any{
	"dateKPI", "timePeriod", "sellerId", "sellerName", "ownerName", "tier", "activityType",
	"defectiveRate", "defectiveCount", "defectiveStreak", "defectiveLabel", "defectiveAction",
	"appearanceRate", "appearanceCount", "appearanceStreak", "appearanceLabel", "appearanceAction",
	"weekNumber", "finalAction", "email",
}

func writeWorkbook(t *testing.T, rows ...[]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	all := append([][]any{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newReader(path string) *Reader {
	return NewReader(path, "", quality.NewResolver(quality.DefaultPolicy()), logger.Discard())
}

func TestReader_LoadSnapshots(t *testing.T) {
	path := writeWorkbook(t,
		[]any{"2024-03-04", "weekly", 12345.0, "Shop A", "Ann", "Gold", "Retail",
			0.05, 5, 1, "Critical", "Send First Warning",
			0.001, 0, 0, "", "No Action",
			10, "Send First Warning", "ann@shop-a.example.com"},
		[]any{"2024-03-04", "weekly", "S-2", "Shop B", "Bob", "Silver", "Retail",
			0.01, 1, 0, "Historical", "No Action",
			"0.90%", 4, 4, "Alerting", "Send Last Warning",
			10, "No Action", "bob@shop-b.example.com; ops@shop-b.example.com"},
		[]any{"2024-03-04", "weekly", "S-3", "Shop C"},
		[]any{"2024-03-04", "weekly", "S-4", "Shop D", "Dee", "Gold", "Retail",
			0.05, 5, 2, "Severe", "No Action",
			0, 0, 0, "", "No Action",
			10, "No Action", "dee@shop-d.example.com"},
		[]any{"2024-03-04", "weekly", "S-5", "Shop E", "Eve", "Gold", "Retail",
			0.09, 9, 7, "Critical", "No Action",
			0, 0, 0, "", "No Action",
			10, "No Action", "eve@shop-e.example.com"},
		[]any{"2024-03-04", "weekly", "S-6", "Shop F", "Fay", "Bronze", "Retail",
			0, 0, 0, "", "",
			0, 0, 0, "", "",
			10},
	)

	batch, err := newReader(path).LoadSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Snapshots, 4)
	require.Len(t, batch.Skipped, 2)

	first := batch.Snapshots[0]
	assert.Equal(t, "12345", first.SellerID)
	assert.Equal(t, quality.ActionFirstWarning, first.FinalAction)
	assert.Equal(t, quality.ActionFirstWarning, first.DefectiveAction)
	assert.Equal(t, 10, first.WeekNumber)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), first.DateKPI)
	assert.Equal(t, "ann@shop-a.example.com", first.Email)

	second := batch.Snapshots[1]
	assert.InDelta(t, 0.009, second.AppearanceRate, 1e-9)
	assert.Equal(t, quality.ActionLastWarning, second.FinalAction, "derived action wins over sheet value")
	assert.Equal(t, quality.ActionNone, second.DefectiveAction)

	excluded := batch.Snapshots[2]
	assert.Equal(t, "S-5", excluded.SellerID)
	assert.True(t, excluded.Excluded)
	assert.Equal(t, quality.ActionNone, excluded.FinalAction)

	quiet := batch.Snapshots[3]
	assert.Equal(t, "S-6", quiet.SellerID)
	assert.Empty(t, quiet.Email)
	assert.Equal(t, quality.ActionNone, quiet.FinalAction)

	assert.Equal(t, 4, batch.Skipped[0].Row)
	assert.ErrorIs(t, batch.Skipped[0], quality.ErrShortRow)
	assert.Equal(t, 5, batch.Skipped[1].Row)
	assert.ErrorIs(t, batch.Skipped[1], quality.ErrInvalidRow)
}

func TestReader_MissingFile(t *testing.T) {
	_, err := newReader(filepath.Join(t.TempDir(), "absent.xlsx")).LoadSnapshots(context.Background())
	assert.Error(t, err)
}

func TestReader_NamedSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Weekly")
	require.NoError(t, err)
	row := []any{"2024-03-04", "weekly", "S-9", "Shop", "Owner", "Gold", "Retail",
		0.05, 3, 1, "Critical", "Send First Warning", 0, 0, 0, "", "", 10, "Send First Warning", "o@shop.example.com"}
	require.NoError(t, f.SetSheetRow("Weekly", "A1", &header))
	require.NoError(t, f.SetSheetRow("Weekly", "A2", &row))
	path := filepath.Join(t.TempDir(), "named.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	r := NewReader(path, "Weekly", quality.NewResolver(quality.DefaultPolicy()), logger.Discard())
	batch, err := r.LoadSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Snapshots, 1)
	assert.Equal(t, "S-9", batch.Snapshots[0].SellerID)

	r = NewReader(path, "Missing", quality.NewResolver(quality.DefaultPolicy()), logger.Discard())
	_, err = r.LoadSnapshots(context.Background())
	assert.Error(t, err, fmt.Sprintf("sheet %q should not exist", "Missing"))
}

func TestCellParser_Date(t *testing.T) {
	p := &cellParser{cells: []string{"45355", "3/4/2024", "yesterday"}}
	assert.Equal(t, 2024, p.date(0).Year())
	assert.Equal(t, time.March, p.date(1).Month())
	assert.NoError(t, p.err)

	p.date(2)
	assert.ErrorIs(t, p.err, quality.ErrInvalidRow)
}
