package smoke

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/RedHatInsights/iqe-smoke-runner/pkg/deploy"
	"github.com/RedHatInsights/iqe-smoke-runner/pkg/serializer"
)

const (
	// DefaultJobName is the Job created by the stock smoke-test manifest.
	DefaultJobName = "rbac-smoke-tests-iqe"

	// DefaultPollInterval is the sleep between readiness checks.
	DefaultPollInterval = time.Second

	// DefaultReadyTimeout bounds each of the two readiness waits (Job exists,
	// Pod running).
	DefaultReadyTimeout = 45 * time.Second

	// DefaultCompletionTimeout bounds the wait for each terminal Job
	// condition (Complete, then Failed).
	DefaultCompletionTimeout = 3 * time.Minute

	// artifactsDirName is both the directory produced inside the pod and the
	// directory created under the workspace.
	artifactsDirName = "artifacts"
)

// Config carries the parameters of one smoke-test run.
type Config struct {
	// Namespace the manifest is applied into and resources are watched in.
	Namespace string

	// JobName of the smoke-test Job. Defaults to DefaultJobName.
	JobName string

	// ManifestPath of the multi-document YAML deployment descriptor.
	ManifestPath string

	// Workspace directory that receives the artifacts/ directory.
	Workspace string

	// Params are substituted into the manifest before it is applied. The IQE
	// test-selection values (plugins, marker, filter) travel here; the runner
	// itself does not interpret them.
	Params deploy.Params

	// ReportFormat of the final artifact listing. Defaults to table.
	ReportFormat serializer.Format

	PollInterval      time.Duration
	ReadyTimeout      time.Duration
	CompletionTimeout time.Duration
}

// ArtifactCopier copies the artifacts directory out of a pod and returns the
// relative paths of the files written.
type ArtifactCopier interface {
	Copy(ctx context.Context, podName string) ([]string, error)
}

// Runner executes one smoke-test run.
type Runner struct {
	client kubernetes.Interface
	cfg    Config
	copier ArtifactCopier
	logOut io.Writer
	out    io.Writer
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithLogOutput overrides the writer that receives the followed pod logs.
func WithLogOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.logOut = w
		}
	}
}

// WithReportOutput overrides the writer that receives the artifact report.
func WithReportOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithArtifactCopier replaces the exec-based artifact copier.
func WithArtifactCopier(c ArtifactCopier) Option {
	return func(r *Runner) {
		if c != nil {
			r.copier = c
		}
	}
}

// NewRunner creates a Runner. restConfig may be nil when a custom
// ArtifactCopier is supplied; it is only needed for the exec-based copy.
func NewRunner(client kubernetes.Interface, restConfig *rest.Config, cfg Config, opts ...Option) *Runner {
	if cfg.JobName == "" {
		cfg.JobName = DefaultJobName
	}
	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = DefaultCompletionTimeout
	}
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = serializer.FormatTable
	}

	r := &Runner{
		client: client,
		cfg:    cfg,
		logOut: os.Stdout,
		out:    os.Stdout,
	}
	r.copier = newExecCopier(client, restConfig, cfg.Namespace, r.artifactsDir())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the full pipeline: submit, wait for Job, wait for Pod, follow
// logs, await terminal condition, collect artifacts, report.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	outcome := "error"
	defer func() {
		smokeRunDuration.Observe(time.Since(start).Seconds())
		smokeRunsTotal.WithLabelValues(outcome).Inc()
	}()

	log := slog.With(
		"run_id", uuid.NewString(),
		"namespace", r.cfg.Namespace,
		"job", r.cfg.JobName,
	)

	log.Info("applying smoke-test manifest", "manifest", r.cfg.ManifestPath)
	if err := r.submit(ctx); err != nil {
		return err
	}

	log.Info("waiting for smoke-test job", "timeout", r.cfg.ReadyTimeout.String())
	if err := r.waitForJob(ctx); err != nil {
		outcome = "job_timeout"
		return err
	}

	log.Info("waiting for running pod", "timeout", r.cfg.ReadyTimeout.String())
	podName, err := r.waitForRunningPod(ctx)
	if err != nil {
		outcome = "pod_timeout"
		return err
	}
	log.Info("smoke-test pod running", "pod", podName)

	// Follow logs in the background for operator visibility. The follower is
	// cancelled and joined when the run finishes so it cannot outlive the
	// rest of the pipeline.
	logCtx, stopLogs := context.WithCancel(ctx)
	defer stopLogs()
	followers, logCtx := errgroup.WithContext(logCtx)
	followers.Go(func() error {
		r.followLogs(logCtx, podName)
		return nil
	})

	r.awaitTermination(ctx, log)

	stopLogs()
	_ = followers.Wait()

	collectStart := time.Now()
	files, err := r.copier.Copy(ctx, podName)
	observePhase("collect", collectStart)
	if err != nil {
		return fmt.Errorf("collect artifacts from pod %s: %w", podName, err)
	}
	log.Info("artifacts collected", "dir", r.artifactsDir(), "files", len(files))

	if err := r.report(ctx, files); err != nil {
		return err
	}

	outcome = "success"
	return nil
}

func (r *Runner) submit(ctx context.Context) error {
	defer observePhase("apply", time.Now())

	objs, err := deploy.LoadManifest(r.cfg.ManifestPath, r.cfg.Params)
	if err != nil {
		return err
	}
	if err := deploy.NewDeployer(r.client, r.cfg.Namespace).Apply(ctx, objs); err != nil {
		return fmt.Errorf("apply manifest: %w", err)
	}
	return nil
}

// waitForJob polls until the Job resource exists.
func (r *Runner) waitForJob(ctx context.Context) error {
	defer observePhase("wait_job", time.Now())

	err := waitUntil(ctx, r.cfg.PollInterval, r.cfg.ReadyTimeout,
		func(ctx context.Context) (bool, error) {
			_, err := r.client.BatchV1().Jobs(r.cfg.Namespace).Get(ctx, r.cfg.JobName, metav1.GetOptions{})
			if errors.IsNotFound(err) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		})
	if wait.Interrupted(err) {
		return fmt.Errorf("job %s/%s did not appear within %s", r.cfg.Namespace, r.cfg.JobName, r.cfg.ReadyTimeout)
	}
	return err
}

// waitForRunningPod polls until a pod of the smoke-test Job reaches Running
// and returns its name. With multiple matches the first in list order wins.
func (r *Runner) waitForRunningPod(ctx context.Context) (string, error) {
	defer observePhase("wait_pod", time.Now())

	var podName string
	err := waitUntil(ctx, r.cfg.PollInterval, r.cfg.ReadyTimeout,
		func(ctx context.Context) (bool, error) {
			list, err := r.client.CoreV1().Pods(r.cfg.Namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return false, err
			}
			for i := range list.Items {
				pod := &list.Items[i]
				if pod.Status.Phase != corev1.PodRunning {
					continue
				}
				if !strings.HasPrefix(pod.Name, r.cfg.JobName) {
					continue
				}
				podName = pod.Name
				return true, nil
			}
			return false, nil
		})
	if wait.Interrupted(err) {
		return "", fmt.Errorf("no running pod for job %s/%s within %s", r.cfg.Namespace, r.cfg.JobName, r.cfg.ReadyTimeout)
	}
	return podName, err
}

// awaitTermination blocks until the Job reports Complete, falling back to
// Failed. An unconfirmed terminal state is logged and tolerated: partial
// artifacts are still worth retrieving.
func (r *Runner) awaitTermination(ctx context.Context, log *slog.Logger) {
	defer observePhase("await_completion", time.Now())

	log.Info("waiting for job completion", "timeout", r.cfg.CompletionTimeout.String())
	if err := r.awaitCondition(ctx, batchv1.JobComplete); err != nil {
		log.Warn("job did not report Complete; checking for Failed", "error", err)
		if err := r.awaitCondition(ctx, batchv1.JobFailed); err != nil {
			log.Warn("job terminal condition unconfirmed, collecting artifacts anyway", "error", err)
		}
	}
}

func (r *Runner) awaitCondition(ctx context.Context, cond batchv1.JobConditionType) error {
	return waitUntil(ctx, r.cfg.PollInterval, r.cfg.CompletionTimeout,
		func(ctx context.Context) (bool, error) {
			job, err := r.client.BatchV1().Jobs(r.cfg.Namespace).Get(ctx, r.cfg.JobName, metav1.GetOptions{})
			if err != nil {
				return false, err
			}
			return hasCondition(job, cond), nil
		})
}

func hasCondition(job *batchv1.Job, cond batchv1.JobConditionType) bool {
	for _, c := range job.Status.Conditions {
		if c.Type == cond && c.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

func (r *Runner) artifactsDir() string {
	return filepath.Join(r.cfg.Workspace, artifactsDirName)
}

// waitUntil polls cond every interval until it reports true, returns an error,
// or the deadline passes. Shared bounded-wait primitive of the readiness and
// terminal-condition checks.
func waitUntil(ctx context.Context, interval, deadline time.Duration, cond wait.ConditionWithContextFunc) error {
	return wait.PollUntilContextTimeout(ctx, interval, deadline, true, cond)
}
