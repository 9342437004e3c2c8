package sheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/sheet"
)

// workbook builds an xlsx with the given sheet and rows, header included.
func workbook(t *testing.T, name string, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadWorkbook_TypesCells(t *testing.T) {
	buf := workbook(t, sheet.DefaultSheet, [][]any{
		{"PK Type", "PK Points", "Win Reward", "Rebate"},
		{"Daily PK", 200, 60, 0.3},
		{"Weekly PK", "1000", 320},
		{"Super PK", 5000, 1700.5},
	})

	rows, err := sheet.ReadWorkbook(buf, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "Daily PK", rows[0].Category)
	assert.Equal(t, float64(200), rows[0].Cost)
	assert.Equal(t, float64(60), rows[0].Yield)
	assert.Equal(t, 0.3, rows[0].Rebate)

	// Text-typed cost survives as text so normalization can drop it
	assert.Equal(t, "1000", rows[1].Cost)
	assert.Nil(t, rows[1].Rebate)

	cat := generic.Normalize(rows)
	require.Len(t, cat.Options, 2)
	assert.Equal(t, "Super PK", cat.Options[1].Category)
	assert.Equal(t, 4, cat.Options[1].Row)
}

func TestReadWorkbook_MissingSheet(t *testing.T) {
	buf := workbook(t, "Sheet1", [][]any{{"PK Type"}})

	_, err := sheet.ReadWorkbook(buf, "")

	assert.ErrorIs(t, err, sheet.ErrSheetNotFound)
	assert.Contains(t, err.Error(), "Sheet1")
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := sheet.ReadWorkbook(strings.NewReader("PK Type,PK Points\n"), "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, sheet.ErrSheetNotFound)
}

func TestReadCSV(t *testing.T) {
	input := "PK Type,PK Points,Win Reward,Rebate\n" +
		"Daily PK,200,60,12%\n" +
		"\n" +
		"Broken,,60\n" +
		"Weekly PK, 1000 ,320\n"

	rows, err := sheet.ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "12%", rows[0].Rebate)
	assert.Nil(t, rows[1].Cost)
	assert.Equal(t, 5, rows[2].Row)
	assert.Equal(t, float64(1000), rows[2].Cost)

	cat, diags := generic.NormalizeWith(rows, generic.DefaultNormalizeOptions())
	assert.Len(t, cat.Options, 2)
	require.Len(t, diags, 1)
	assert.Equal(t, 4, diags[0].Row)
}

func TestWriteAllocation_Layout(t *testing.T) {
	alloc, err := generic.Allocate(generic.Catalog{Options: []generic.Option{
		generic.NewOption("Weekly PK", 1000, 320),
		generic.NewOption("Daily PK", 200, 60),
	}}, 2400)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sheet.WriteAllocation(&buf, sheet.AllocationExport{Diamonds: 240, Allocation: alloc}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet.AllocationSheet)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Diamonds Used", "240"}, rows[0])
	assert.Equal(t, []string{"Score Target", "2400"}, rows[1])
	assert.Equal(t, []string{"Score Utilized", "2400"}, rows[2])
	assert.Empty(t, rows[3])
	assert.Equal(t, []string{"PK Type", "Points Each", "Win Reward Each", "Uses", "Total Points", "Total Reward"}, rows[4])
	assert.Equal(t, []string{"Weekly PK", "1000", "320", "2", "2000", "640"}, rows[5])
	assert.Equal(t, []string{"Daily PK", "200", "60", "2", "400", "120"}, rows[6])

	styleID, err := f.GetCellStyle(sheet.AllocationSheet, "A5")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}


func TestWriteAllocation_DiamondLabels(t *testing.T) {
	// GIVEN: An allocation over a diamonds catalog
	alloc, err := generic.Allocate(generic.Catalog{Options: []generic.Option{
		generic.NewOption("Daily PK", 200, 60),
	}}, 500)
	require.NoError(t, err)

	// WHEN: Writing it with the catalog unit
	var buf bytes.Buffer
	require.NoError(t, sheet.WriteAllocation(&buf, sheet.AllocationExport{Diamonds: 500, Unit: generic.UnitDiamonds, Allocation: alloc}))

	// THEN: Budget rows and cost columns are labelled in diamonds
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet.AllocationSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diamond Target", "500"}, rows[1])
	assert.Equal(t, []string{"Diamonds Utilized", "400"}, rows[2])
	assert.Equal(t, []string{"PK Type", "Diamonds Each", "Win Reward Each", "Uses", "Total Diamonds", "Total Reward"}, rows[4])
}
func TestWriteCombos(t *testing.T) {
	combos, err := generic.FindCombos([]generic.Option{
		generic.NewOption("Daily PK", 200, 60).WithRebate(0.3),
		generic.NewOption("Super PK", 5000, 1700),
	}, 5200, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sheet.WriteCombos(&buf, generic.SummarizeAll(combos)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet.CombosSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Members", rows[0][5])
	assert.Equal(t, []string{"1", "2", "5200", "1760", "0.3", "Daily PK (cost 200, yield 60); Super PK (cost 5000, yield 1700)"}, rows[1])
	// Super PK alone has no rebate: the cell stays empty
	assert.Equal(t, "", rows[2][4])
}
