package main

import (
	"fmt"

	"PokeImageScraper/internal/network"
	"PokeImageScraper/internal/pokedex"

	"github.com/spf13/cobra"
)

// NewPokedexCmd は、図鑑を構築して一覧表示する pokedex コマンドを返します。
func NewPokedexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pokedex",
		Short: "図鑑を構築して番号と名前を表示します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := prepare(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			applyRangeFlags(cmd, &cfg.Pokedex)

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			client, err := network.NewClient(cfg.Network)
			if err != nil {
				return err
			}
			source, err := pokedex.NewSource(cfg.Pokedex, cfg.Network, client)
			if err != nil {
				return err
			}
			index, err := source.Build(ctx)
			if err != nil {
				return err
			}
			for _, e := range index.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.ID, e.Name)
			}
			return nil
		},
	}
	addRangeFlags(cmd)
	return cmd
}
