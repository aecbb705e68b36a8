package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// ビルド時に -ldflags で埋め込まれるバージョン情報です。
var (
	version = ""
	commit  = ""
)

// getVersion は ldflags、ビルド情報、"(devel)" の順にバージョンを返します。
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getCommit は ldflags、ビルド情報の vcs.revision、"unknown" の順にコミットを返します。
func getCommit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 7 {
					return s.Value[:7]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd は version コマンドを返します。
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョン情報を表示します",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pokescrape version %s (commit: %s)\n", getVersion(), getCommit())
		},
	}
}
