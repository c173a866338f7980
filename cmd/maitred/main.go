package main

import (
	"os"

	"github.com/uma-arai/sbcntr-maitred/cmd/maitred/commands"
)

// ビルド時に設定されるバージョン情報
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)

	// エラーは printer で整形して出力済み
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
