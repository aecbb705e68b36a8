package main

import (
	"fmt"

	"PokeImageScraper/internal/adapter"
	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/core"
	"PokeImageScraper/internal/model"
	"PokeImageScraper/internal/network"
	"PokeImageScraper/internal/pokedex"

	"github.com/spf13/cobra"
)

// NewDiscoverCmd は、ダウンロードせずに画像URLだけを表示する discover コマンドを返します。
func NewDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "discover <site> <id>",
		Short:   "1匹分の画像URLを表示します (ダウンロードはしません)",
		Example: "  pokescrape discover pokemondb 25",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseIdentifier(args[1])
			if err != nil {
				return err
			}
			cfg, closeLog, err := prepare(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			task := taskForSite(cfg, args[0])
			siteAdapter, err := adapter.GetAdapter(task)
			if err != nil {
				return err
			}

			client, err := network.NewClient(cfg.Network)
			if err != nil {
				return err
			}
			// 指定された番号だけを含む図鑑を作る
			settings := cfg.Pokedex
			settings.Start, settings.End, settings.All = id.Number(), id.Number(), false
			source, err := pokedex.NewSource(settings, cfg.Network, client)
			if err != nil {
				return err
			}
			index, err := source.Build(ctx)
			if err != nil {
				return err
			}

			refs, err := core.NewDiscoverer(client, task.MaxPages).Discover(ctx, siteAdapter, index, id)
			for _, ref := range refs {
				fmt.Fprintln(cmd.OutOrStdout(), ref.URL)
			}
			return err
		},
	}
}

// taskForSite は、設定中の site_adapter が一致する最初のタスクを返します。
// 見つからない場合は既定値のタスクです。
func taskForSite(cfg *config.Config, site string) config.Task {
	for _, task := range cfg.Tasks {
		if task.SiteAdapter == site {
			return task
		}
	}
	return config.Task{TaskName: site, SiteAdapter: site}
}
