// 指示: miu200521358
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/adapter/io_skeleton"
	"github.com/miu200521358/mu_retarget/pkg/adapter/io_skeleton/yamlrig"
	"github.com/miu200521358/mu_retarget/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/infra/mconfig"
	"github.com/miu200521358/mu_retarget/pkg/infra/mi18n"
	"github.com/miu200521358/mu_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_retarget/pkg/usecase/minteractor"
	"github.com/spf13/cobra"
)

const outputPrefix = "[mu_retarget]"

// rootOptions は全サブコマンド共通の引数を保持する。
type rootOptions struct {
	configPath string
	logLevel   string
	lang       string
	config     *mconfig.AppConfig
}

// retargetOptions はretargetサブコマンドの引数を保持する。
type retargetOptions struct {
	sourcePath    string
	targetPath    string
	clipPath      string
	outputPath    string
	poseMode      string
	scaleOverride float64
	noAutoScale   bool
}

// liveOptions はliveサブコマンドの引数を保持する。
type liveOptions struct {
	targetPath string
	packetPath string
	outputPath string
	actor      string
	object     string
}

// main はCLIを実行する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	cmd := newRootCommand(out, errOut)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(context.Background())
}

// newRootCommand はサブコマンドを持つルートコマンドを生成する。
func newRootCommand(out io.Writer, errOut io.Writer) *cobra.Command {
	_ = mi18n.Initialize(nil)
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mu_retarget",
		Short:         mi18n.T(messages.HelpUsageTitle),
		Long:          mi18n.T(messages.HelpUsage),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(errOut)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", mi18n.T(messages.HelpFlagConfig))
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", mi18n.T(messages.HelpFlagLogLevel))
	cmd.PersistentFlags().StringVar(&opts.lang, "lang", "", mi18n.T(messages.HelpFlagLang))

	cmd.AddCommand(newRetargetCommand(opts, out))
	cmd.AddCommand(newLiveCommand(opts, out))
	return cmd
}

// prepare は設定ファイルを読み込み、ログと表示言語を設定する。
func (opts *rootOptions) prepare(errOut io.Writer) error {
	cfg, err := mconfig.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", mi18n.T(messages.MessageConfigFailed, map[string]any{"Path": opts.configPath}), err)
	}
	if strings.TrimSpace(opts.logLevel) != "" {
		cfg.Log.Level = opts.logLevel
	}
	if strings.TrimSpace(opts.lang) != "" {
		cfg.Lang = opts.lang
	}

	level, ok := logging.ParseLevel(cfg.Log.Level)
	if !ok {
		return fmt.Errorf("%s", mi18n.T(messages.MessageLogLevelInvalid, map[string]any{"Value": cfg.Log.Level}))
	}
	logging.SetDefaultLogger(logging.NewLogger(errOut, level))
	mi18n.SetLang(cfg.Lang)
	opts.config = cfg
	return nil
}

// newUsecase はファイル入出力を結線したユースケースを生成する。
func newUsecase() *minteractor.RetargetUsecase {
	rigRepository := yamlrig.NewYamlRigRepository()
	return minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		SkeletonReader: io_skeleton.NewSkeletonRepository(),
		ClipReader:     rigRepository,
		PoseWriter:     rigRepository,
		PacketReader:   rigRepository,
	})
}

// newRetargetCommand はアニメーションのリターゲットを行うサブコマンドを生成する。
func newRetargetCommand(rootOpts *rootOptions, out io.Writer) *cobra.Command {
	opts := &retargetOptions{}
	cmd := &cobra.Command{
		Use:   "retarget",
		Short: mi18n.T(messages.HelpRetarget),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetarget(cmd, rootOpts, opts, out)
		},
	}
	cmd.Flags().StringVar(&opts.sourcePath, "source", "", mi18n.T(messages.LabelSourcePath))
	cmd.Flags().StringVar(&opts.targetPath, "target", "", mi18n.T(messages.LabelTargetPath))
	cmd.Flags().StringVar(&opts.clipPath, "clip", "", mi18n.T(messages.LabelClipPath))
	cmd.Flags().StringVar(&opts.outputPath, "out", "", mi18n.T(messages.LabelOutputPath))
	cmd.Flags().StringVar(&opts.poseMode, "pose-mode", "", "REST | CURRENT")
	cmd.Flags().Float64Var(&opts.scaleOverride, "scale", 0, "scale override (> 0)")
	cmd.Flags().BoolVar(&opts.noAutoScale, "no-auto-scale", false, "disable auto scale")
	return cmd
}

// runRetarget はretargetサブコマンドを実行する。
func runRetarget(cmd *cobra.Command, rootOpts *rootOptions, opts *retargetOptions, out io.Writer) error {
	if err := requirePaths(
		[]string{opts.sourcePath, opts.targetPath, opts.clipPath},
		[]string{messages.MessageSourceRequired, messages.MessageTargetRequired, messages.MessageClipRequired},
	); err != nil {
		return err
	}

	if err := requireLoadable(opts.sourcePath, opts.targetPath); err != nil {
		return err
	}

	retargetConfig := rootOpts.config.Retarget
	if cmd.Flags().Changed("pose-mode") {
		retargetConfig.PoseMode = opts.poseMode
	}
	if cmd.Flags().Changed("scale") {
		retargetConfig.ScaleOverride = opts.scaleOverride
	}
	if opts.noAutoScale {
		retargetConfig.AutoScale = false
	}
	configureOptions, err := retargetConfig.ConfigureOptions()
	if err != nil {
		return fmt.Errorf("%s", mi18n.T(messages.MessagePoseModeInvalid, map[string]any{"Value": retargetConfig.PoseMode}))
	}

	fmt.Fprintf(out, "%s %s\n", outputPrefix, mi18n.T(messages.LogRetargetStart, map[string]any{"Clip": opts.clipPath}))
	result, err := newUsecase().Retarget(cmd.Context(), minteractor.RetargetRequest{
		SourcePath: opts.sourcePath,
		TargetPath: opts.targetPath,
		ClipPath:   opts.clipPath,
		OutputPath: opts.outputPath,
		Pairs:      retargetConfig.BonePairs(),
		Options:    configureOptions,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", mi18n.T(messages.MessageRetargetFailed), err)
	}

	printDiagnostics(out, result.Diagnostics)
	if result.SkippedCount > 0 {
		fmt.Fprintf(out, "%s %s\n", outputPrefix, mi18n.T(messages.LogRetargetSkipped, map[string]any{"Count": result.SkippedCount}))
	}
	fmt.Fprintf(out, "%s %s\n", outputPrefix, mi18n.T(messages.LogRetargetComplete, map[string]any{
		"Path":   result.OutputPath,
		"Frames": len(result.Stream.Frames),
		"Scale":  fmt.Sprintf("%.4f", result.Scale),
	}))
	return nil
}

// newLiveCommand は記録済みライブデータを再生するサブコマンドを生成する。
func newLiveCommand(rootOpts *rootOptions, out io.Writer) *cobra.Command {
	opts := &liveOptions{}
	cmd := &cobra.Command{
		Use:   "live",
		Short: mi18n.T(messages.HelpLive),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, rootOpts, opts, out)
		},
	}
	cmd.Flags().StringVar(&opts.targetPath, "target", "", mi18n.T(messages.LabelTargetPath))
	cmd.Flags().StringVar(&opts.packetPath, "packets", "", mi18n.T(messages.LabelPacketPath))
	cmd.Flags().StringVar(&opts.outputPath, "out", "", mi18n.T(messages.LabelOutputPath))
	cmd.Flags().StringVar(&opts.actor, "actor", "", "actor name")
	cmd.Flags().StringVar(&opts.object, "object", "", "target object name")
	return cmd
}

// runLive はliveサブコマンドを実行する。
func runLive(cmd *cobra.Command, rootOpts *rootOptions, opts *liveOptions, out io.Writer) error {
	if err := requirePaths(
		[]string{opts.targetPath, opts.packetPath},
		[]string{messages.MessageTargetRequired, messages.MessagePacketRequired},
	); err != nil {
		return err
	}

	if err := requireLoadable(opts.targetPath); err != nil {
		return err
	}

	liveConfig := rootOpts.config.Live
	if strings.TrimSpace(opts.actor) != "" {
		liveConfig.Actor = opts.actor
	}
	if strings.TrimSpace(opts.object) != "" {
		liveConfig.Object = opts.object
	}
	sensors, err := liveConfig.SensorEntries()
	if err != nil {
		return fmt.Errorf("%s: %w", mi18n.T(messages.MessageLiveFailed), err)
	}

	fmt.Fprintf(out, "%s %s\n", outputPrefix, mi18n.T(messages.LogLiveStart, map[string]any{"Path": opts.packetPath}))
	result, err := newUsecase().ReplayLive(cmd.Context(), minteractor.LiveReplayRequest{
		TargetPath: opts.targetPath,
		PacketPath: opts.packetPath,
		OutputPath: opts.outputPath,
		Object:     liveConfig.Object,
		Actor:      liveConfig.Actor,
		Sensors:    sensors,
		Scale:      liveConfig.Scale.LiveScale(),
		Trackers:   liveConfig.TrackerBindings(),
		Faces:      liveConfig.FaceBindings(liveConfig.Object),
		Options:    minteractor.LiveSessionOptions{ResetOnStop: liveConfig.ResetOnStop},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", mi18n.T(messages.MessageLiveFailed), err)
	}

	printDiagnostics(out, result.Diagnostics)
	fmt.Fprintf(out, "%s %s\n", outputPrefix, mi18n.T(messages.LogLiveComplete, map[string]any{"Packets": len(result.Outputs)}))
	return nil
}

// requirePaths は必須パスの指定を検証する。
func requirePaths(paths []string, messageIDs []string) error {
	for i, path := range paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%s", mi18n.T(messageIDs[i]))
		}
	}
	return nil
}

// requireLoadable は骨格ファイルが対応形式であることを検証する。
func requireLoadable(paths ...string) error {
	repository := io_skeleton.NewSkeletonRepository()
	for _, path := range paths {
		if !repository.CanLoad(path) {
			return fmt.Errorf("%s", mi18n.T(messages.MessageInputUnsupported, map[string]any{"Path": path}))
		}
	}
	return nil
}

// printDiagnostics は診断を1行ずつ表示する。
func printDiagnostics(out io.Writer, diagnostics []model.Diagnostic) {
	for _, diagnostic := range diagnostics {
		fmt.Fprintf(out, "%s %s\n", outputPrefix, mi18n.T(messages.LogDiagnostic, map[string]any{
			"Kind":    diagnostic.ID,
			"Subject": diagnostic.Subject,
			"Detail":  fmt.Sprintf("frame=%d", diagnostic.Frame),
		}))
	}
}
