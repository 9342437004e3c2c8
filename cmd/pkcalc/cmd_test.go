package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/sheet"
)

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestOptimize_PresetJSON(t *testing.T) {
	// GIVEN: The diamond preset and 5200 diamonds
	// WHEN: Optimizing with JSON output
	out, err := runCLI(t, "optimize", "--preset", rewards.PresetDiamonds, "--budget", "5200", "--format", "json")
	require.NoError(t, err)

	// THEN: One Super PK then one Daily PK use the whole budget
	var res allocationOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 5200, res.Used)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, "1760", res.TotalYield.String())
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "Super PK", res.Entries[0].Category)
	assert.Equal(t, "Daily PK", res.Entries[1].Category)
}

func TestOptimize_Table(t *testing.T) {
	out, err := runCLI(t, "optimize", "-p", rewards.PresetDiamonds, "-b", "5200")
	require.NoError(t, err)

	assert.Contains(t, out, "Used: 5200")
	assert.Contains(t, out, "PK TYPE")
	assert.Contains(t, out, "Super PK")
}

func TestOptimize_NothingFits(t *testing.T) {
	out, err := runCLI(t, "optimize", "-p", rewards.PresetDiamonds, "-b", "100")
	require.NoError(t, err)

	assert.Contains(t, out, rewards.MessageNoFit)
	assert.NotContains(t, out, "PK TYPE")
}

func TestOptimize_ExportsWorkbook(t *testing.T) {
	// GIVEN: A points catalog in CSV and a budget of 120 diamonds
	csvPath := writeFile(t, "tiers.csv", "PK Type,PK Points,Win Reward\nDaily PK,200,60\nWeekly PK,1000,320\n")
	xlsxPath := filepath.Join(t.TempDir(), "plan.xlsx")

	// WHEN: Optimizing with --out
	_, err := runCLI(t, "optimize", "-c", csvPath, "-b", "120", "--out", xlsxPath)
	require.NoError(t, err)

	// THEN: The workbook holds the diamond budget and the points used
	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet.AllocationSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diamonds Used", "120"}, rows[0])
	assert.Equal(t, []string{"Score Target", "1200"}, rows[1])
	assert.Equal(t, []string{"Score Utilized", "1200"}, rows[2])
}

func TestOptimize_ExportsDiamondCatalog(t *testing.T) {
	xlsxPath := filepath.Join(t.TempDir(), "plan.xlsx")

	_, err := runCLI(t, "optimize", "-p", rewards.PresetDiamonds, "-b", "5200", "--out", xlsxPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet.AllocationSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diamonds Used", "5200"}, rows[0])
	assert.Equal(t, []string{"Diamond Target", "5200"}, rows[1])
	assert.Equal(t, "Diamonds Each", rows[4][1])
}

func TestBest(t *testing.T) {
	out, err := runCLI(t, "best", "-p", rewards.PresetDiamonds, "-b", "999", "-f", "json")
	require.NoError(t, err)

	var res bestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Best)
	assert.Equal(t, "Daily PK", res.Best.Category)

	out, err = runCLI(t, "best", "-p", rewards.PresetDiamonds, "-b", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Best: Weekly PK")
}

func TestCombos(t *testing.T) {
	out, err := runCLI(t, "combos", "-p", rewards.PresetDiamonds, "-b", "1200", "-f", "json")
	require.NoError(t, err)

	var res combosOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Combos, 3)
	assert.Equal(t, 1200, res.Combos[0].TotalCost)
	assert.Equal(t, "380", res.Combos[0].TotalYield.String())
	assert.Equal(t, 2, res.Combos[0].Size)

	out, err = runCLI(t, "combos", "-p", rewards.PresetDiamonds, "-b", "1200", "--top", "1", "--order", "by_density")
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly PK (cost 1000, yield 320)")
	assert.NotContains(t, out, "Daily PK")
}

func TestCombos_ExportsWorkbook(t *testing.T) {
	xlsxPath := filepath.Join(t.TempDir(), "combos.xlsx")

	_, err := runCLI(t, "combos", "-p", rewards.PresetDiamonds, "-b", "1200", "--out", xlsxPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet.CombosSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCatalogFromDefinition(t *testing.T) {
	path := writeFile(t, "spring.yaml", `
id: spring
unit: diamonds
options:
  - {category: Daily PK, cost: 200, yield: 60}
`)

	out, err := runCLI(t, "best", "-c", path, "-b", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "Best: Daily PK")
}

func TestErrors(t *testing.T) {
	badCSV := writeFile(t, "bad.csv", "PK Type,PK Points,Win Reward\nDaily PK,,60\n")

	cases := []struct {
		name    string
		args    []string
		isUsage bool
		client  bool
	}{
		{"no catalog", []string{"best", "-b", "1"}, true, false},
		{"both catalogs", []string{"best", "-b", "1", "-p", rewards.PresetDiamonds, "-c", badCSV}, true, false},
		{"bad format", []string{"best", "-b", "1", "-p", rewards.PresetDiamonds, "-f", "xml"}, true, false},
		{"unknown preset", []string{"best", "-b", "1", "-p", "nope"}, true, false},
		{"bad catalog unit", []string{"best", "-b", "1", "-c", badCSV, "--catalog-unit", "coins"}, true, false},
		{"negative budget", []string{"optimize", "--budget=-5", "-p", rewards.PresetDiamonds}, false, true},
		{"strict row", []string{"best", "-b", "1", "-c", badCSV, "--strict"}, false, true},
		{"bad order", []string{"combos", "-b", "1", "-p", rewards.PresetDiamonds, "--order", "x"}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.isUsage, errors.Is(err, errUsage))
			assert.Equal(t, tc.client, generic.IsClientError(err))
		})
	}
}

func TestPresets(t *testing.T) {
	out, err := runCLI(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, rewards.PresetDiamonds)
	assert.Contains(t, out, rewards.PresetPoints)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitInput, exitCode(errUsage))
	assert.Equal(t, ExitInput, exitCode(sheet.ErrSheetNotFound))
	assert.Equal(t, ExitError, exitCode(os.ErrPermission))

	_, err := runCLI(t, "best", "-b", "1", "-p", rewards.PresetDiamonds, "--unit", "coins")
	assert.Equal(t, ExitInput, exitCode(err))
}
