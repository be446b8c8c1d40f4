package serve

import (
	"github.com/andrebq/authbox/accounts/api"
	"github.com/andrebq/authbox/internal/boot"
	"github.com/andrebq/authbox/internal/cmdflags"
	"github.com/andrebq/authbox/internal/config"
	"github.com/andrebq/authbox/internal/httpserver"
	"github.com/andrebq/authbox/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	defaults := config.Defaults()
	var configFile string
	database := defaults.Database
	rootKeyEnvVar := defaults.RootKeyEnvVar
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the authbox HTTP api",
		Flags: []cli.Flag{
			cmdflags.Config(&configFile),
			cmdflags.Database(&database),
			cmdflags.RootKeyEnvVar(&rootKeyEnvVar),
			&cli.StringFlag{
				Name:  cmdflags.BindFlag,
				Usage: "Address to bind for incoming requests",
				Value: defaults.Bind,
			},
			&cli.StringFlag{
				Name:  cmdflags.CookieDomainFlag,
				Usage: "Domain attribute of the session cookie (empty means host only)",
			},
			&cli.StringFlag{
				Name:  cmdflags.LogLevelFlag,
				Usage: "Minimum level of log messages (debug, info, warn, error)",
				Value: defaults.LogLevel,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := cmdflags.Load(ctx)
			if err != nil {
				return err
			}
			logger, err := boot.Logger(cfg)
			if err != nil {
				return err
			}
			runCtx := logutil.WithLogger(ctx.Context, logger)
			svc, store, err := boot.Accounts(runCtx, cfg, boot.Env{})
			if err != nil {
				return err
			}
			defer store.Close()
			logger.Info().Str("database", cfg.Database).Dur("session_cache_ttl", cfg.SessionCache).Msg("Credential store ready")
			handler := api.AsHandler(svc, api.CookieOptions{Domain: cfg.CookieDomain})
			return httpserver.Serve(runCtx, cfg.Bind, cfg.Server, handler)
		},
	}
}
