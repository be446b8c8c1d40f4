package boot

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andrebq/authbox/accounts"
	"github.com/andrebq/authbox/credential"
	"github.com/andrebq/authbox/internal/config"
	"github.com/andrebq/authbox/userstore"
	"github.com/rs/zerolog"
)

type (
	Env struct {
		Getenv func(string) string
		Setenv func(string, string) error
	}
)

// Accounts loads the application key, opens the credential store and
// returns the service on top of them. Closing the returned store is up to
// the caller.
func Accounts(ctx context.Context, cfg config.Config, env Env) (*accounts.Service, userstore.Store, error) {
	if env.Getenv == nil {
		env.Getenv = os.Getenv
	}
	if env.Setenv == nil {
		env.Setenv = os.Setenv
	}
	key, err := credential.KeyFromEnv(cfg.RootKeyEnvVar, env.Getenv, env.Setenv)
	if err != nil {
		return nil, nil, err
	}
	hasher, err := credential.NewHasher(key)
	key.Zero()
	if err != nil {
		return nil, nil, err
	}
	var store userstore.Store
	store, err = userstore.OpenSQLite(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.SessionCache > 0 {
		cached, err := userstore.Cached(store, cfg.SessionCache)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		store = cached
	}
	return accounts.New(store, hasher, nil), store, nil
}

func Logger(cfg config.Config) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %v, cause %w", cfg.LogLevel, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}
