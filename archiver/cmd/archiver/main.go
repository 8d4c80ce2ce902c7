package main

import (
	"log/slog"
	"os"

	"github.com/himawarilapse/himawarilapse/archiver/internal/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		slog.Error("himawari-archiver failed", "err", err)
		os.Exit(1)
	}
}
