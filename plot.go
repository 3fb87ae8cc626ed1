package main

import (
	"fmt"
	"log"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// 出力曲線 (空力出力, 発電出力) を PNG に保存する。停止点は 0 kW で描く。
func (r *Recorder) ExportPlot(outputDir string) error {
	path := filepath.Join(outputDir, plotFile)
	log.Printf("Save power curve plot to `%s`", path)

	aero := make(plotter.XYs, len(r.curve))
	elec := make(plotter.XYs, len(r.curve))
	for i, p := range r.curve {
		aero[i].X = p.WindSpeed
		aero[i].Y = p.AeroPower / 1000
		elec[i].X = p.WindSpeed
		elec[i].Y = p.ElectricalPower / 1000
	}

	p := plot.New()
	p.Title.Text = "Power curve"
	p.X.Label.Text = "Wind speed [m/s]"
	p.Y.Label.Text = "Power [kW]"
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLinePoints(p,
		"Aerodynamic", aero,
		"Electrical", elec,
	); err != nil {
		return fmt.Errorf("plotting failed: %w", err)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
