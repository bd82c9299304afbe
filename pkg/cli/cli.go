package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// kubeconfigFlag is shared by commands that talk to the cluster.
var kubeconfigFlag = &cli.StringFlag{
	Name:    "kubeconfig",
	Sources: cli.EnvVars("KUBECONFIG"),
	Usage:   "Path to the kubeconfig file (defaults to ~/.kube/config, then in-cluster)",
}

// New assembles the iqe-smoke command tree.
func New() *cli.Command {
	return &cli.Command{
		Name:  "iqe-smoke",
		Usage: "Run IQE smoke tests as a Kubernetes Job and collect their artifacts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCmd(),
			versionCmd(),
		},
	}
}
