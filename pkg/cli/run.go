package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/RedHatInsights/iqe-smoke-runner/pkg/deploy"
	"github.com/RedHatInsights/iqe-smoke-runner/pkg/k8s/client"
	"github.com/RedHatInsights/iqe-smoke-runner/pkg/smoke"
)

// connect builds the cluster client: the shared cached client for the default
// discovery chain, or a fresh one when an explicit kubeconfig was given.
func connect(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	if kubeconfig == "" {
		return client.GetKubeClient()
	}
	return client.BuildKubeClient(kubeconfig)
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Execute one smoke-test run against a namespace",
		Description: `Applies the smoke-test manifest into the target namespace, waits for the
Job resource and a Running pod (45s each, polling once per second), follows
the pod logs, waits up to 3 minutes for the Job to report Complete (falling
back to Failed), then copies the pod's artifacts/ directory into
<workspace>/artifacts and prints a listing.

# Examples

Run against a namespace using the stock manifest:
  iqe-smoke run --namespace rbac-stage

Run with an explicit manifest and workspace, selecting tests via IQE markers:
  iqe-smoke run -n rbac-stage -f deploy/iqe-smoke-job.yaml \
    -w "$WORKSPACE" --plugins rbac --marker "smoke and not slow"

All flags fall back to the environment, so a CI step that exports NAMESPACE,
WORKSPACE and the IQE_* variables only needs:
  iqe-smoke run`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "namespace",
				Aliases:  []string{"n"},
				Required: true,
				Sources:  cli.EnvVars("NAMESPACE"),
				Usage:    "Namespace the smoke-test Job is deployed into",
			},
			&cli.StringFlag{
				Name:    "job-name",
				Value:   smoke.DefaultJobName,
				Sources: cli.EnvVars("IQE_JOB_NAME"),
				Usage:   "Name of the Job created by the manifest",
			},
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"f"},
				Value:   "deploy/iqe-smoke-job.yaml",
				Sources: cli.EnvVars("IQE_MANIFEST"),
				Usage:   "Path to the multi-document YAML deployment descriptor",
			},
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Value:   ".",
				Sources: cli.EnvVars("WORKSPACE"),
				Usage:   "Directory that receives the collected artifacts/ directory",
			},
			&cli.StringFlag{
				Name:    "plugins",
				Sources: cli.EnvVars("IQE_PLUGINS"),
				Usage:   "IQE plugin list, passed through to the test invocation unmodified",
			},
			&cli.StringFlag{
				Name:    "marker",
				Sources: cli.EnvVars("IQE_MARKER_EXPRESSION"),
				Usage:   "IQE marker expression, passed through to the test invocation unmodified",
			},
			&cli.StringFlag{
				Name:    "filter",
				Sources: cli.EnvVars("IQE_FILTER_EXPRESSION"),
				Usage:   "IQE filter expression, passed through to the test invocation unmodified",
			},
			&cli.StringFlag{
				Name:    "image-tag",
				Value:   "latest",
				Sources: cli.EnvVars("IQE_IMAGE_TAG"),
				Usage:   "Tag of the IQE tests image referenced by the manifest",
			},
			&cli.DurationFlag{
				Name:  "ready-timeout",
				Value: smoke.DefaultReadyTimeout,
				Usage: "Deadline for each readiness wait (Job exists, pod Running)",
			},
			&cli.DurationFlag{
				Name:  "completion-timeout",
				Value: smoke.DefaultCompletionTimeout,
				Usage: "Deadline for each terminal-condition wait (Complete, then Failed)",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Value: smoke.DefaultPollInterval,
				Usage: "Sleep between readiness checks",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "table",
				Usage: "Artifact report format: table, json or yaml",
			},
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			clientset, restConfig, err := connect(cmd.String("kubeconfig"))
			if err != nil {
				return fmt.Errorf("connect to cluster: %w", err)
			}

			cfg := smoke.Config{
				Namespace:    cmd.String("namespace"),
				JobName:      cmd.String("job-name"),
				ManifestPath: cmd.String("manifest"),
				Workspace:    cmd.String("workspace"),
				Params: deploy.Params{
					"NAMESPACE":             cmd.String("namespace"),
					"JOB_NAME":              cmd.String("job-name"),
					"IQE_PLUGINS":           cmd.String("plugins"),
					"IQE_MARKER_EXPRESSION": cmd.String("marker"),
					"IQE_FILTER_EXPRESSION": cmd.String("filter"),
					"IQE_IMAGE_TAG":         cmd.String("image-tag"),
				},
				ReportFormat:      format,
				PollInterval:      cmd.Duration("poll-interval"),
				ReadyTimeout:      cmd.Duration("ready-timeout"),
				CompletionTimeout: cmd.Duration("completion-timeout"),
			}

			runner := smoke.NewRunner(clientset, restConfig, cfg)
			if err := runner.Run(ctx); err != nil {
				slog.Error("smoke-test run failed", "error", err)
				return err
			}
			return nil
		},
	}
}
