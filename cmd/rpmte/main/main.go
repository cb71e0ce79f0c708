package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkulik-rh/rpm/cmd/rpmte"
	"github.com/mkulik-rh/rpm/pkg/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := rpmte.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_ = ui.NewRenderer(ui.FormatAuto, os.Stderr).Error(err)
		stop()
		os.Exit(1)
	}
}
