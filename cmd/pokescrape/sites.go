package main

import (
	"fmt"

	"PokeImageScraper/internal/adapter"

	"github.com/spf13/cobra"
)

// NewSitesCmd は、登録済みのサイトアダプタを表示する sites コマンドを返します。
func NewSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "対応しているサイトの一覧を表示します",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range adapter.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
