package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rotor_calc/bem"
)

func testRecorder() *Recorder {
	curve := []bem.PowerCurvePoint{
		{WindSpeed: 2, Parked: true, Converged: true, Iterations: 1},
		{WindSpeed: 6, TSR: 7, Cp: 0.45, AeroPower: 180, ElectricalPower: 170, Converged: true, Iterations: 2},
		{WindSpeed: 10, TSR: 7, Cp: 0.40, AeroPower: 450, ElectricalPower: 300, Iterations: 50, Warning: "U=10 m/s: not converged after 50 iterations"},
	}
	loads := []bem.SectionLoad{
		{WindSpeed: 6, Section: 0, Radius: 0.5, Normal: 12, Tangential: 1.5, Converged: true},
		{WindSpeed: 6, Section: 1, Radius: 1.0, Normal: 20, Tangential: 2.5, Converged: true},
	}
	aep := []bem.AEPResult{
		{MeanWindSpeed: 6, Scale: 6.77, Energy: 1.2e6, Revenue: decimal.RequireFromString("300.5")},
	}
	return NewRecorder(curve, loads, aep)
}

func TestRecorderExport(t *testing.T) {
	dir := t.TempDir()
	r := testRecorder()
	assert.Equal(t, 1, r.UnconvergedCount())
	require.NoError(t, r.Export(dir))

	f, err := os.Open(filepath.Join(dir, powerCurveFile))
	require.NoError(t, err)
	defer f.Close()
	var curve []*bem.PowerCurvePoint
	require.NoError(t, gocsv.UnmarshalFile(f, &curve))
	require.Len(t, curve, 3)
	assert.True(t, curve[0].Parked)
	assert.Equal(t, 170.0, curve[1].ElectricalPower)
	assert.False(t, curve[2].Converged)
	assert.Contains(t, curve[2].Warning, "not converged")

	data, err := os.ReadFile(filepath.Join(dir, sectionLoadsFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "wind_speed,azimuth_deg,section,radius"))

	data, err = os.ReadFile(filepath.Join(dir, aepFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "300.5")
}

func TestRecorderExportWithoutAEP(t *testing.T) {
	dir := t.TempDir()
	r := testRecorder()
	r.aep = nil
	require.NoError(t, r.Export(dir))
	_, err := os.Stat(filepath.Join(dir, aepFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRecorderExportWorkbook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, testRecorder().ExportWorkbook(dir))

	f, err := excelize.OpenFile(filepath.Join(dir, workbookFile))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"PowerCurve", "SectionLoads", "AEP"}, f.GetSheetList())
	rows, err := f.GetRows("PowerCurve")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "wind_speed", rows[0][0])
	assert.Equal(t, "6", rows[2][0])

	v, err := f.GetCellValue("AEP", "D2")
	require.NoError(t, err)
	assert.Equal(t, "300.5", v)
}

func TestRecorderExportPlot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, testRecorder().ExportPlot(dir))
	st, err := os.Stat(filepath.Join(dir, plotFile))
	require.NoError(t, err)
	assert.Greater(t, st.Size(), int64(0))
}

func TestEnvOr(t *testing.T) {
	t.Setenv("ROTOR_TEST_VALUE", "from-env")
	assert.Equal(t, "from-env", envOr("ROTOR_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", envOr("ROTOR_TEST_UNSET", "fallback"))
}
