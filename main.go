package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/ByLCY/quire/cmd"
)

const version = "0.1.0"

func main() {
	root := cmd.NewRootCmd()

	// fang 提供补全、manpage、--version 与信号处理
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
