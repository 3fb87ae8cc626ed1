package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"rotor_calc/bem"
)

/*
出力曲線計算の実行

	Args:
		configPath: 計算条件 YAML ファイルへのパス
		outputDir: 出力フォルダへのパス
		isWorkbookSaved: Excel ブックを出力するか否か
		isPlotSaved: 出力曲線の図を出力するか否か
*/
func run(configPath, outputDir string, isWorkbookSaved, isPlotSaved bool) error {
	// ---- 事前準備 ----

	// 出力ディレクトリの作成
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("`%s` is not a directory: %w", outputDir, err)
	}

	log.Printf("計算条件ファイルの読み込み開始: %s", configPath)
	cfg, err := bem.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log.Printf("ロータ形状・翼型データの読み込み開始")
	rotor, err := bem.NewRotor(cfg)
	if err != nil {
		return err
	}
	log.Printf("blades=%d, sections=%d, tip radius=%.3f m, air density=%.4f kg/m3",
		rotor.Geometry.BladeCount(), rotor.Geometry.SectionCount(), rotor.Geometry.TipRadius(), rotor.AirDensity)

	// ---- 計算 ----

	log.Printf("出力曲線の計算開始")
	curve, err := rotor.PowerCurve(context.Background())
	if err != nil {
		return err
	}

	log.Printf("断面荷重の計算開始")
	loads := rotor.SectionLoads(curve)

	var aep []bem.AEPResult
	if len(cfg.AEP.MeanSpeed) > 0 {
		log.Printf("年間発電量の計算開始")
		aep, err = rotor.AEP(curve)
		if err != nil {
			return err
		}
	}

	// ---- 計算結果ファイルの保存 ----

	rec := NewRecorder(curve, loads, aep)
	if err := rec.Export(outputDir); err != nil {
		return err
	}
	if isWorkbookSaved {
		if err := rec.ExportWorkbook(outputDir); err != nil {
			return err
		}
	}
	if isPlotSaved {
		if err := rec.ExportPlot(outputDir); err != nil {
			return err
		}
	}
	return nil
}

// 環境変数 key が設定されていればその値、なければ fallback
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env は任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	var configPath string
	flag.StringVar(&configPath, "input", envOr("ROTOR_CONFIG", ""), "計算条件の YAML ファイル (環境変数 ROTOR_CONFIG)")

	var outputDir string
	flag.StringVar(&outputDir, "o", envOr("ROTOR_OUTPUT_DIR", "."), "出力フォルダ (環境変数 ROTOR_OUTPUT_DIR)")

	var workbookSaved bool
	flag.BoolVar(&workbookSaved, "workbook", false, "計算結果を Excel ブックにも出力するか否かを指定します。")

	var plotSaved bool
	flag.BoolVar(&plotSaved, "plot", false, "出力曲線の図 (PNG) を出力するか否かを指定します。")

	// 引数を受け取る
	flag.Parse()

	if configPath == "" {
		log.Fatal("input is required: specify -input or ROTOR_CONFIG")
	}

	log.Printf("input: %s", configPath)
	log.Printf("output_dir: %s", outputDir)

	start := time.Now()

	if err := run(configPath, outputDir, workbookSaved, plotSaved); err != nil {
		log.Fatal(err)
	}

	elapsedTime := time.Since(start)
	log.Printf("elapsed_time: %v [sec]", elapsedTime)
}
