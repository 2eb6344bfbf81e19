package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fundops/lookthrough/internal/app"
	"github.com/fundops/lookthrough/internal/common"
)

func main() {
	configPath := flag.String("config", "", "path to lookthrough.toml (default: $LOOKTHROUGH_CONFIG, then config/lookthrough.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	common.PrintBanner(a.Config, a.Logger)

	runErr := a.Run()
	a.Close()
	if runErr != nil {
		a.Logger.Error().Err(runErr).Msg("Pipeline run failed")
		os.Exit(1)
	}
}
