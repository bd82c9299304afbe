package smoke

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
)

const (
	logScannerInitial = 64 * 1024
	logScannerMax     = 1024 * 1024
)

// followLogs streams the pod's log output to the runner's log writer until
// the context is cancelled or the stream ends. Streaming exists for operator
// visibility only, so failures are logged and never fail the run.
func (r *Runner) followLogs(ctx context.Context, podName string) {
	opts := &corev1.PodLogOptions{Follow: true}

	backoff := 250 * time.Millisecond
	for {
		if ctx.Err() != nil {
			return
		}
		stream, err := r.client.CoreV1().Pods(r.cfg.Namespace).GetLogs(podName, opts).Stream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if isRetryableLogStreamErr(err) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				if backoff < 2*time.Second {
					backoff *= 2
				}
				continue
			}
			slog.Warn("log streaming unavailable", "pod", podName, "error", err)
			return
		}

		scanner := bufio.NewScanner(stream)
		scanner.Buffer(make([]byte, logScannerInitial), logScannerMax)
		for scanner.Scan() {
			fmt.Fprintln(r.logOut, scanner.Text())
		}
		scanErr := scanner.Err()
		_ = stream.Close()

		if scanErr != nil && ctx.Err() == nil && isRetryableLogStreamErr(scanErr) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		return
	}
}

// The apiserver rejects log requests with BadRequest while the container is
// still starting, e.g. "container ... is waiting to start: ContainerCreating".
func isRetryableLogStreamErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "is waiting to start") ||
		strings.Contains(msg, "containercreating") ||
		strings.Contains(msg, "podinitializing")
}
