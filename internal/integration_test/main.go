// 指示: miu200521358
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_retarget/pkg/adapter/io_skeleton"
	"github.com/miu200521358/mu_retarget/pkg/adapter/io_skeleton/yamlrig"
	"github.com/miu200521358/mu_retarget/pkg/infra/mconfig"
	"github.com/miu200521358/mu_retarget/pkg/usecase/minteractor"
	"gopkg.in/yaml.v3"
)

const (
	batchOutputDirMode = 0o755
)

// batchConfig はバッチリターゲットの実行設定を表す。
type batchConfig struct {
	CasesPath  string
	ConfigPath string
	OutputRoot string
	DryRun     bool
	FailFast   bool
}

// caseManifest はバッチ対象の一覧ファイルを表す。
type caseManifest struct {
	Cases []caseManifestEntry `yaml:"cases"`
}

// caseManifestEntry は一覧ファイル内の1件を表す。
type caseManifestEntry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Clip   string `yaml:"clip"`
}

// retargetEntry は1件分のリターゲット入力情報を表す。
type retargetEntry struct {
	Index      int
	SourcePath string
	TargetPath string
	ClipPath   string
	CaseName   string
	CaseDir    string
	OutputPath string
}

// retargetCaseResult は1件分のリターゲット結果を表す。
type retargetCaseResult struct {
	Entry         retargetEntry
	Status        string
	Duration      time.Duration
	Err           error
	Scale         float64
	ProgressStage string
}

// retargetProgressCollector はリターゲットの進捗イベントを収集する。
type retargetProgressCollector struct {
	eventCounts  map[minteractor.RetargetProgressEventType]int
	pairMax      int
	frameMax     int
	skippedTotal int
}

// main は骨格とアニメーションの組を一括でリターゲットする。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括リターゲットを実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	manifest, err := loadCaseManifest(config.CasesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "対象一覧の読み込みに失敗しました: %v\n", err)
		return 2
	}
	entries := buildRetargetEntries(config.OutputRoot, manifest.Cases)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "リターゲット対象がありません")
		return 2
	}
	appConfig, err := mconfig.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定ファイルの読み込みに失敗しました: %v\n", err)
		return 2
	}

	results := executeBatchRetarget(config, appConfig, entries)
	printBatchSummary(results)

	for _, result := range results {
		if result.Status == "failed" {
			return 1
		}
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	defaultOutputRoot, err := resolveDefaultOutputRoot()
	if err != nil {
		return batchConfig{}, err
	}
	casesPath := flag.String("cases", "", "リターゲット対象一覧(YAML)")
	configPath := flag.String("config", "", "リターゲット設定ファイル(YAML)")
	outputRoot := flag.String("output-root", defaultOutputRoot, "リターゲット結果の出力ルートディレクトリ")
	dryRun := flag.Bool("dry-run", false, "実処理せず、入力解決と出力先計画のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	if strings.TrimSpace(*casesPath) == "" {
		return batchConfig{}, errors.New("cases が空です")
	}
	trimmedOutputRoot := strings.TrimSpace(*outputRoot)
	if trimmedOutputRoot == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	return batchConfig{
		CasesPath:  normalizeInputPath(*casesPath),
		ConfigPath: normalizeInputPath(*configPath),
		OutputRoot: filepath.Clean(trimmedOutputRoot),
		DryRun:     *dryRun,
		FailFast:   *failFast,
	}, nil
}

// resolveDefaultOutputRoot はスクリプト配置ディレクトリ基準の既定出力先を返す。
func resolveDefaultOutputRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("実行ファイル位置を取得できません")
	}
	currentDir := filepath.Dir(currentFilePath)
	return filepath.Join(currentDir, "output"), nil
}

// loadCaseManifest は対象一覧ファイルを読み込む。
func loadCaseManifest(path string) (caseManifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return caseManifest{}, err
	}
	manifest := caseManifest{}
	if err := yaml.Unmarshal(b, &manifest); err != nil {
		return caseManifest{}, err
	}
	return manifest, nil
}

// buildRetargetEntries は対象一覧からリターゲット対象エントリを生成する。
func buildRetargetEntries(outputRoot string, cases []caseManifestEntry) []retargetEntry {
	entries := make([]retargetEntry, 0, len(cases))
	for i, c := range cases {
		caseName := resolveName(c.Target) + "_" + resolveName(c.Clip)
		safeCaseName := sanitizePathComponent(caseName)
		caseDir := filepath.Join(outputRoot, fmt.Sprintf("%03d_%s", i+1, safeCaseName))
		entries = append(entries, retargetEntry{
			Index:      i + 1,
			SourcePath: normalizeInputPath(c.Source),
			TargetPath: normalizeInputPath(c.Target),
			ClipPath:   normalizeInputPath(c.Clip),
			CaseName:   caseName,
			CaseDir:    caseDir,
			OutputPath: filepath.Join(caseDir, safeCaseName+".yaml"),
		})
	}
	return entries
}

// executeBatchRetarget は全件のリターゲットを順次実行する。
func executeBatchRetarget(config batchConfig, appConfig *mconfig.AppConfig, entries []retargetEntry) []retargetCaseResult {
	results := make([]retargetCaseResult, 0, len(entries))
	rigRepository := yamlrig.NewYamlRigRepository()
	usecase := minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		SkeletonReader: io_skeleton.NewSkeletonRepository(),
		ClipReader:     rigRepository,
		PoseWriter:     rigRepository,
	})

	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] リターゲット開始: case=%s\n", entry.Index, total, entry.CaseName)
		result := retargetCase(usecase, config, appConfig, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] リターゲット成功: case=%s output=%s scale=%.4f elapsed=%s\n", entry.Index, total, entry.CaseName, entry.OutputPath, result.Scale, result.Duration.Round(time.Millisecond))
			if strings.TrimSpace(result.ProgressStage) != "" {
				fmt.Printf("[%d/%d] 進捗: %s\n", entry.Index, total, result.ProgressStage)
			}
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: case=%s clip=%s output=%s\n", entry.Index, total, entry.CaseName, entry.ClipPath, entry.OutputPath)
		case "skipped_missing":
			fmt.Printf("[%d/%d] 入力不足でスキップ: case=%s reason=%v\n", entry.Index, total, entry.CaseName, result.Err)
		default:
			fmt.Printf("[%d/%d] リターゲット失敗: case=%s reason=%v\n", entry.Index, total, entry.CaseName, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// retargetCase は1件分のリターゲットを実行する。
func retargetCase(usecase *minteractor.RetargetUsecase, config batchConfig, appConfig *mconfig.AppConfig, entry retargetEntry) retargetCaseResult {
	result := retargetCaseResult{
		Entry:  entry,
		Status: "failed",
	}
	for _, path := range []string{entry.SourcePath, entry.TargetPath, entry.ClipPath} {
		if _, err := os.Stat(path); err != nil {
			result.Status = "skipped_missing"
			result.Err = err
			return result
		}
	}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}
	if err := os.MkdirAll(entry.CaseDir, batchOutputDirMode); err != nil {
		result.Err = fmt.Errorf("出力ディレクトリ作成に失敗しました: %w", err)
		return result
	}
	options, err := appConfig.Retarget.ConfigureOptions()
	if err != nil {
		result.Err = err
		return result
	}

	startedAt := time.Now()
	progressCollector := newRetargetProgressCollector()
	retargeted, err := usecase.Retarget(context.Background(), minteractor.RetargetRequest{
		SourcePath:       entry.SourcePath,
		TargetPath:       entry.TargetPath,
		ClipPath:         entry.ClipPath,
		OutputPath:       entry.OutputPath,
		Pairs:            appConfig.Retarget.BonePairs(),
		Options:          options,
		ProgressReporter: progressCollector,
	})
	if err != nil {
		result.Err = fmt.Errorf("Retargetに失敗しました: %w", err)
		return result
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	result.Scale = retargeted.Scale
	result.ProgressStage = progressCollector.Summary()
	return result
}

// printBatchSummary は結果の集計を標準出力へ表示する。
func printBatchSummary(results []retargetCaseResult) {
	succeeded := 0
	failed := 0
	skipped := 0
	dryRun := 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		case "skipped_missing":
			skipped++
		default:
			failed++
		}
	}
	fmt.Printf(
		"バッチリターゲットサマリ: total=%d succeeded=%d failed=%d skipped_missing=%d dry_run=%d\n",
		len(results),
		succeeded,
		failed,
		skipped,
		dryRun,
	)
}

// resolveName は入力パスから拡張子を除いた名前を返す。
func resolveName(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	ext := filepath.Ext(base)
	name := strings.TrimSpace(strings.TrimSuffix(base, ext))
	if name == "" || name == "." {
		return "case"
	}
	return name
}

// normalizeInputPath は入力パスを実行環境向けに正規化する。
func normalizeInputPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return filepath.Clean(convertWindowsPathToWsl(path))
}

// convertWindowsPathToWsl は Linux 実行時に Windows パスを WSL パスへ変換する。
func convertWindowsPathToWsl(path string) string {
	trimmed := strings.TrimSpace(path)
	if runtime.GOOS != "linux" {
		return trimmed
	}
	if len(trimmed) < 2 || trimmed[1] != ':' {
		return trimmed
	}
	drive := strings.ToLower(trimmed[:1])
	rest := strings.ReplaceAll(trimmed[2:], "\\", "/")
	if rest == "" {
		return filepath.ToSlash(filepath.Join("/mnt", drive))
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return filepath.ToSlash(filepath.Join("/mnt", drive) + rest)
}

// sanitizePathComponent は出力ディレクトリ/ファイル名に使えない文字を置換する。
func sanitizePathComponent(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "case"
	}
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		default:
			if r < 0x20 {
				return '_'
			}
			return r
		}
	}, trimmed)
	replaced = strings.Trim(replaced, " .")
	if replaced == "" {
		return "case"
	}
	return replaced
}

// newRetargetProgressCollector はリターゲット進捗収集器を生成する。
func newRetargetProgressCollector() *retargetProgressCollector {
	return &retargetProgressCollector{
		eventCounts: map[minteractor.RetargetProgressEventType]int{},
	}
}

// ReportRetargetProgress はリターゲットの進捗イベントを収集する。
func (collector *retargetProgressCollector) ReportRetargetProgress(event minteractor.RetargetProgressEvent) {
	if collector == nil {
		return
	}
	if collector.eventCounts == nil {
		collector.eventCounts = map[minteractor.RetargetProgressEventType]int{}
	}
	collector.eventCounts[event.Type]++
	if event.PairCount > collector.pairMax {
		collector.pairMax = event.PairCount
	}
	if event.FrameCount > collector.frameMax {
		collector.frameMax = event.FrameCount
	}
	collector.skippedTotal += event.SkippedCount
}

// Summary は収集した進捗の要約文字列を返す。
func (collector *retargetProgressCollector) Summary() string {
	if collector == nil || len(collector.eventCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(collector.eventCounts))
	for stageType := range collector.eventCounts {
		types = append(types, string(stageType))
	}
	sort.Strings(types)
	return fmt.Sprintf(
		"events=%d pairs=%d frames=%d skipped=%d stages=%s",
		len(collector.eventCounts),
		collector.pairMax,
		collector.frameMax,
		collector.skippedTotal,
		strings.Join(types, ","),
	)
}
