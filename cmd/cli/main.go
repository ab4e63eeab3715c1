package main

import (
	"context"
	"log"
	"os"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/passkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/passkeeper/internal/cli"
	"github.com/dmitrijs2005/passkeeper/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// wipes every credential enclave on interrupt before the process dies
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
