package cmdflags

import (
	"github.com/andrebq/authbox/internal/config"
	"github.com/urfave/cli/v2"
)

const (
	ConfigFlag        = "config"
	DatabaseFlag      = "database"
	RootKeyEnvVarFlag = "root-key-envvar-name"
	BindFlag          = "bind"
	CookieDomainFlag  = "cookie-domain"
	LogLevelFlag      = "log-level"
)

func Config(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        ConfigFlag,
		Aliases:     []string{"c"},
		Usage:       "Path to a YAML config file (flags take precedence over it)",
		EnvVars:     []string{"AUTHBOX_CONFIG"},
		Destination: out,
		Value:       *out,
	}
}

func Database(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        DatabaseFlag,
		Aliases:     []string{"db"},
		Usage:       "Path to the sqlite file holding the user credentials",
		Destination: out,
		Value:       *out,
	}
}

func RootKeyEnvVar(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        RootKeyEnvVarFlag,
		Usage:       "Name of the environment variable that holds the root key. The key itself should not be passed as an argument",
		Destination: out,
		Value:       *out,
	}
}

// Apply copies every flag the user explicitly set over cfg.
func Apply(ctx *cli.Context, cfg *config.Config) error {
	for name, dst := range map[string]*string{
		DatabaseFlag:      &cfg.Database,
		RootKeyEnvVarFlag: &cfg.RootKeyEnvVar,
		BindFlag:          &cfg.Bind,
		CookieDomainFlag:  &cfg.CookieDomain,
		LogLevelFlag:      &cfg.LogLevel,
	} {
		if ctx.IsSet(name) {
			*dst = ctx.String(name)
		}
	}
	return cfg.Validate()
}

// Load reads the config file named by the config flag and applies the
// explicitly set flags on top of it.
func Load(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String(ConfigFlag))
	if err != nil {
		return cfg, err
	}
	err = Apply(ctx, &cfg)
	return cfg, err
}
