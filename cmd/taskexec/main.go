package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jzx17/taskexec/internal/cli"
	"github.com/jzx17/taskexec/internal/util"
)

func main() {
	ctx := util.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, util.FriendlyError(err))
		os.Exit(1)
	}
}
