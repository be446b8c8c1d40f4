package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/authbox/cmd/authbox/keygen"
	"github.com/andrebq/authbox/cmd/authbox/serve"
	"github.com/andrebq/authbox/cmd/authbox/users"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "authbox",
		Usage: "Cookie session authentication for small user directories",
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
			keygen.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
