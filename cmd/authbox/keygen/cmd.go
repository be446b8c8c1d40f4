package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/andrebq/authbox/credential"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Print a new random application key (base64), suitable for the root key env var",
		Action: func(ctx *cli.Context) error {
			var k credential.Key
			if _, err := rand.Read(k[:]); err != nil {
				return err
			}
			defer k.Zero()
			_, err := fmt.Fprintln(ctx.App.Writer, k.String())
			return err
		},
	}
}
