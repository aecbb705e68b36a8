package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/logging"

	"github.com/spf13/cobra"
)

// NewRootCmd は pokescrape のルートコマンドを返します。
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pokescrape",
		Short: "ポケモンの画像を各サイトから収集します",
		Long: `pokescrape は、図鑑番号ごとにポケモンの画像を収集するスクレイパーです。
Bulbapedia または PokeAPI から図鑑を構築し、Bulbagarden Archives・
pokemon.com のカード検索・pokemondb のスプライト・zerochan から画像を保存します。

設定ファイルは --config、./pokescrape.{json,yaml,yml}、
$XDG_CONFIG_HOME/pokescrape/config.{json,yaml,yml} の順に探します。
見つからない場合は第1世代 (1-151) を全サイトから収集します。`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "設定ファイルのパス")
	cmd.PersistentFlags().String("log-level", "", "ログレベル (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("pretty", false, "人間が読みやすい形式でログを出力します")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewPokedexCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute はルートコマンドを実行します。
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// prepare は設定を読み込み、フラグで上書きしてからロガーを設定します。
// 戻り値の関数でログファイルを閉じます。
func prepare(cmd *cobra.Command) (*config.Config, func() error, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("pretty") {
		cfg.LogPretty, _ = cmd.Flags().GetBool("pretty")
	}

	_, closeLog, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		Output:     cmd.ErrOrStderr(),
		EnableFile: cfg.EnableLogFile,
		FilePath:   cfg.LogFilePath,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, closeLog, nil
}

// signalContext は、SIGINT/SIGTERM でキャンセルされるコンテキストを返します。
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
