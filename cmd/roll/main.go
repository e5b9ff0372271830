// Command roll evaluates a WFRP3e dice pool, formula or check definition.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	rollcmd "github.com/louisbranch/wfrp3e.dice/internal/cmd/roll"
	platformcmd "github.com/louisbranch/wfrp3e.dice/internal/platform/cmd"
	"github.com/louisbranch/wfrp3e.dice/internal/platform/config"
)

func main() {
	log.SetPrefix("[ROLL] ")
	cfg, err := rollcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceRoll, func(ctx context.Context) error {
		return rollcmd.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("%s", rollcmd.ErrorMessage(cfg.Locale, err))
	}
}
