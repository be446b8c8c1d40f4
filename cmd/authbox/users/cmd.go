package users

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/andrebq/authbox/accounts"
	"github.com/andrebq/authbox/internal/boot"
	"github.com/andrebq/authbox/internal/cmdflags"
	"github.com/andrebq/authbox/internal/config"
	"github.com/andrebq/authbox/userstore"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	defaults := config.Defaults()
	var svc *accounts.Service
	var store userstore.Store
	var configFile string
	database := defaults.Database
	rootKeyEnvVar := defaults.RootKeyEnvVar
	return &cli.Command{
		Name:  "users",
		Usage: "Manage accounts directly in the credential store",
		Flags: []cli.Flag{
			cmdflags.Config(&configFile),
			cmdflags.Database(&database),
			cmdflags.RootKeyEnvVar(&rootKeyEnvVar),
		},
		Before: func(ctx *cli.Context) error {
			cfg, err := cmdflags.Load(ctx)
			if err != nil {
				return err
			}
			// lookups from the cli never benefit from the session cache
			cfg.SessionCache = 0
			svc, store, err = boot.Accounts(ctx.Context, cfg, boot.Env{})
			return err
		},
		After: func(ctx *cli.Context) error {
			if store == nil {
				return nil
			}
			return store.Close()
		},
		Subcommands: []*cli.Command{
			registerCmd(&svc),
			listCmd(&svc),
			deleteCmd(&svc),
		},
	}
}

func registerCmd(svc **accounts.Service) *cli.Command {
	var email string
	var username string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new account without a session (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email used to login",
				Destination: &email,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Display name of the user",
				Destination: &username,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			id, err := (*svc).Provision(ctx.Context, email, username, password)
			if err != nil {
				return err
			}
			return printJSON(ctx, id)
		},
	}
}

func listCmd(svc **accounts.Service) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List all accounts",
		Action: func(ctx *cli.Context) error {
			users, err := (*svc).List(ctx.Context)
			if err != nil {
				return err
			}
			return printJSON(ctx, users)
		},
	}
}

func deleteCmd(svc **accounts.Service) *cli.Command {
	var id string
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete an account, ending its session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "id",
				Usage:       "Id of the account to delete",
				Destination: &id,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			deleted, err := (*svc).Delete(ctx.Context, id)
			if err != nil {
				return err
			}
			return printJSON(ctx, deleted)
		},
	}
}

func printJSON(ctx *cli.Context, v interface{}) error {
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
