package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// version is injected at build time via -ldflags.
var version = "dev"

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the iqe-smoke version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("iqe-smoke %s\n", version)
			return nil
		},
	}
}
