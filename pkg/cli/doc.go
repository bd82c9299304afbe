// Package cli implements the command-line interface for the iqe-smoke tool.
//
// # Overview
//
// iqe-smoke drives one smoke-test run against a Kubernetes/OpenShift
// namespace: it applies the smoke-test manifest, waits for the Job and its
// Pod, streams the pod logs, waits for the Job to finish and copies the
// test artifacts into the local workspace.
//
// # Commands
//
// run - execute one smoke-test run:
//
//	iqe-smoke run --namespace rbac-stage
//	iqe-smoke run -n rbac-stage -f deploy/iqe-smoke-job.yaml -w "$WORKSPACE"
//	iqe-smoke run -n rbac-stage --format json
//
// Every flag can also come from the environment (NAMESPACE, IQE_JOB_NAME,
// WORKSPACE, IQE_PLUGINS, IQE_MARKER_EXPRESSION, IQE_FILTER_EXPRESSION,
// IQE_IMAGE_TAG, KUBECONFIG), so CI pipelines that exported these variables
// for the original shell wrapper keep working unchanged.
//
// version - print the build version.
package cli
