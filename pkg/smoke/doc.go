/*
Package smoke orchestrates a single smoke-test run against a namespace.

A run applies the smoke-test manifest, waits for the Job resource to appear,
waits for its Pod to reach Running, follows the pod's log output in the
background, blocks until the Job reports Complete or Failed, copies the
artifacts directory out of the pod into the workspace and prints a listing.

# Run lifecycle

	clientset, restConfig, err := client.GetKubeClient()
	if err != nil {
		return err
	}

	runner := smoke.NewRunner(clientset, restConfig, smoke.Config{
		Namespace:    "rbac-stage",
		ManifestPath: "deploy/iqe-smoke-job.yaml",
		Workspace:    os.Getenv("WORKSPACE"),
	})

	if err := runner.Run(ctx); err != nil {
		return err
	}

The two readiness waits poll the API server once per second and give up after
45 seconds each; the terminal-condition wait is bounded at 3 minutes per
condition. Missing Job or Pod is fatal. An unconfirmed terminal condition is
not: the run logs a warning and still collects whatever artifacts exist.

# Testing

The runner works against kubernetes.Interface and takes its poll interval and
deadlines from Config, so tests use the fake clientset with millisecond
timings.
*/
package smoke
