package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

/*
計算結果を Excel ブックに保存する。

	シート: PowerCurve, SectionLoads, AEP (年平均風速の指定がある場合)
*/
func (r *Recorder) ExportWorkbook(outputDir string) error {
	path := filepath.Join(outputDir, workbookFile)
	log.Printf("Save workbook to `%s`", path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "PowerCurve"); err != nil {
		return err
	}
	header := []interface{}{"wind_speed", "tip_speed", "pitch", "tsr", "aero_power", "electrical_power",
		"rotor_speed", "torque", "efficiency", "cp", "ct", "iterations", "converged", "parked"}
	rows := make([][]interface{}, len(r.curve))
	for i, p := range r.curve {
		rows[i] = []interface{}{p.WindSpeed, p.TipSpeed, p.Pitch, p.TSR, p.AeroPower, p.ElectricalPower,
			p.RotorSpeed, p.Torque, p.Efficiency, p.Cp, p.Ct, p.Iterations, p.Converged, p.Parked}
	}
	if err := writeSheet(f, "PowerCurve", header, rows); err != nil {
		return err
	}

	header = []interface{}{"wind_speed", "azimuth_deg", "section", "radius", "phi_deg", "alpha_deg", "a", "a_prime",
		"cl", "cd", "tip_hub_loss", "reynolds", "mach", "normal", "tangential", "converged"}
	rows = make([][]interface{}, len(r.loads))
	for i, s := range r.loads {
		rows[i] = []interface{}{s.WindSpeed, s.AzimuthDeg, s.Section, s.Radius, s.PhiDeg, s.AlphaDeg, s.A, s.APrime,
			s.Cl, s.Cd, s.F, s.Reynolds, s.Mach, s.Normal, s.Tangential, s.Converged}
	}
	if _, err := f.NewSheet("SectionLoads"); err != nil {
		return err
	}
	if err := writeSheet(f, "SectionLoads", header, rows); err != nil {
		return err
	}

	if len(r.aep) > 0 {
		header = []interface{}{"mean_wind_speed", "scale", "energy_kwh", "revenue"}
		rows = make([][]interface{}, len(r.aep))
		for i, a := range r.aep {
			rows[i] = []interface{}{a.MeanWindSpeed, a.Scale, a.Energy / 1000, a.Revenue.String()}
		}
		if _, err := f.NewSheet("AEP"); err != nil {
			return err
		}
		if err := writeSheet(f, "AEP", header, rows); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("sheet %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	return nil
}
