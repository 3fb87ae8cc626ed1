package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"rotor_calc/bem"
)

const (
	powerCurveFile   = "power_curve.csv"
	sectionLoadsFile = "section_loads.csv"
	aepFile          = "aep.csv"
	workbookFile     = "result.xlsx"
	plotFile         = "power_curve.png"
)

// 計算結果の保持と出力
type Recorder struct {
	curve []bem.PowerCurvePoint
	loads []bem.SectionLoad
	aep   []bem.AEPResult
}

func NewRecorder(curve []bem.PowerCurvePoint, loads []bem.SectionLoad, aep []bem.AEPResult) *Recorder {
	return &Recorder{curve: curve, loads: loads, aep: aep}
}

// 未収束の風速の数
func (r *Recorder) UnconvergedCount() int {
	n := 0
	for _, p := range r.curve {
		if !p.Converged {
			n++
		}
	}
	return n
}

/*
計算結果を CSV に保存する。

	Args:
		outputDir: 出力フォルダへのパス
*/
func (r *Recorder) Export(outputDir string) error {
	if n := r.UnconvergedCount(); n > 0 {
		log.Printf("warning: %d of %d wind speeds did not converge", n, len(r.curve))
	}

	if err := writeCSV(filepath.Join(outputDir, powerCurveFile), &r.curve); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outputDir, sectionLoadsFile), &r.loads); err != nil {
		return err
	}
	if len(r.aep) > 0 {
		if err := writeCSV(filepath.Join(outputDir, aepFile), &r.aep); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows interface{}) error {
	log.Printf("Save calculation results to `%s`", path)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
