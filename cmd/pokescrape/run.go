package main

import (
	"context"
	"fmt"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/core"
	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/metrics"

	"github.com/spf13/cobra"
)

// NewRunCmd は、図鑑の構築から画像の保存までを実行する run コマンドを返します。
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "有効な全タスクを実行して画像を保存します",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
	cmd.Flags().String("site", "", "指定したサイトのタスクだけを実行します")
	cmd.Flags().String("metrics-addr", "", "Prometheus の /metrics を公開するアドレス (例: :9090)")
	addRangeFlags(cmd)
	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	applyRangeFlags(cmd, &cfg.Pokedex)

	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	site, _ := cmd.Flags().GetString("site")

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	logger := logging.NewLogger("cli")
	if cfg.MetricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("メトリクスサーバーの起動に失敗しました")
			}
		}()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("メトリクスを公開しています")
	}

	stats, err := core.ExecuteTasks(ctx, cfg, site)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn().Msg("終了シグナルを受信したため、処理を中断しました。")
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), stats.FormatSessionInfo())
	return nil
}

// addRangeFlags は図鑑の範囲を指定するフラグを追加します。
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("start", config.DefaultPokedexStart, "最初の図鑑番号")
	cmd.Flags().Int("end", config.DefaultPokedexEnd, "最後の図鑑番号 (この番号を含む)")
	cmd.Flags().Bool("all", false, "全てのポケモンを対象にします (--start/--end より優先)")
}

// applyRangeFlags は、明示されたフラグだけで設定の範囲を上書きします。
func applyRangeFlags(cmd *cobra.Command, settings *config.PokedexSettings) {
	if cmd.Flags().Changed("start") {
		settings.Start, _ = cmd.Flags().GetInt("start")
	}
	if cmd.Flags().Changed("end") {
		settings.End, _ = cmd.Flags().GetInt("end")
	}
	if cmd.Flags().Changed("all") {
		settings.All, _ = cmd.Flags().GetBool("all")
	}
}
