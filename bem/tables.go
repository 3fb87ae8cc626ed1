package bem

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
)

// ブレード断面表の1行
type BladeRow struct {
	Radius      float64 `csv:"radius" yaml:"radius"`       // m
	Chord       float64 `csv:"chord" yaml:"chord"`         // m
	TwistDeg    float64 `csv:"twist_deg" yaml:"twist_deg"` // degree
	Airfoil     string  `csv:"airfoil" yaml:"airfoil"`
	AeroCentreX float64 `csv:"ac_x" yaml:"ac_x"` // m
	AeroCentreY float64 `csv:"ac_y" yaml:"ac_y"` // m
}

// 極曲線表の1行
type PolarRow struct {
	Airfoil  string  `csv:"airfoil"`
	Reynolds float64 `csv:"reynolds"`
	AlphaDeg float64 `csv:"alpha_deg"` // degree
	Cl       float64 `csv:"cl"`
	Cd       float64 `csv:"cd"`
	Cm       float64 `csv:"cm"`
}

func readCSV(filePath string, out interface{}) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	return nil
}

/*
ブレード断面表を読み込む。

	Args:
		filePath: CSV ファイルのパス (radius, chord, twist_deg, airfoil, ac_x, ac_y)

	Returns:
		半径の昇順の BladeSection
*/
func LoadBladeSections(filePath string) ([]BladeSection, error) {
	var rows []*BladeRow
	if err := readCSV(filePath, &rows); err != nil {
		return nil, fmt.Errorf("blade table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("blade table: %s has no rows", filePath)
	}
	return bladeSectionsFromRows(rows), nil
}

func bladeSectionsFromRows(rows []*BladeRow) []BladeSection {
	sections := make([]BladeSection, len(rows))
	for i, r := range rows {
		sections[i] = BladeSection{
			Radius:      r.Radius,
			Chord:       r.Chord,
			Twist:       r.TwistDeg * math.Pi / 180,
			AeroCentreX: r.AeroCentreX,
			AeroCentreY: r.AeroCentreY,
			Airfoil:     r.Airfoil,
		}
	}
	return sections
}

/*
極曲線表を読み込む。

	1ファイルに複数の翼型・レイノルズ数を含めてよい。
	(翼型, レイノルズ数) ごとに迎角の昇順に並べ替えて AirfoilPolar にまとめる。

	Args:
		filePath: CSV ファイルのパス (airfoil, reynolds, alpha_deg, cl, cd, cm)

	Returns:
		翼型名 -> 極曲線
*/
func LoadPolars(filePath string) (map[string]*AirfoilPolar, error) {
	var rows []*PolarRow
	if err := readCSV(filePath, &rows); err != nil {
		return nil, fmt.Errorf("polar table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("polar table: %s has no rows", filePath)
	}
	return polarsFromRows(rows)
}

func polarsFromRows(rows []*PolarRow) (map[string]*AirfoilPolar, error) {
	type key struct {
		airfoil  string
		reynolds float64
	}
	groups := map[key][]*PolarRow{}
	var order []key
	for _, r := range rows {
		k := key{r.Airfoil, r.Reynolds}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	polars := map[string]*AirfoilPolar{}
	for _, k := range order {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool { return g[i].AlphaDeg < g[j].AlphaDeg })

		alpha := make([]float64, len(g))
		cl := make([]float64, len(g))
		cd := make([]float64, len(g))
		cm := make([]float64, len(g))
		for i, r := range g {
			alpha[i] = r.AlphaDeg * math.Pi / 180
			cl[i], cd[i], cm[i] = r.Cl, r.Cd, r.Cm
		}

		p, ok := polars[k.airfoil]
		if !ok {
			p = &AirfoilPolar{Name: k.airfoil}
			polars[k.airfoil] = p
		}
		if err := p.AddCurve(k.reynolds, alpha, cl, cd, cm); err != nil {
			return nil, fmt.Errorf("polar table: %w", err)
		}
	}
	return polars, nil
}
