package smoke

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestFollowLogs(t *testing.T) {
	podName := DefaultJobName + "-abc"
	clientset := fake.NewClientset(testPod(podName, corev1.PodRunning))

	var buf bytes.Buffer
	r := NewRunner(clientset, nil, testConfig(),
		WithArtifactCopier(&stubCopier{}),
		WithLogOutput(&buf),
	)

	r.followLogs(context.Background(), podName)
	assert.Contains(t, buf.String(), "fake logs")
}

func TestFollowLogs_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	r := NewRunner(fake.NewClientset(), nil, testConfig(),
		WithArtifactCopier(&stubCopier{}),
		WithLogOutput(&buf),
	)

	// Must return promptly instead of retrying against a dead context.
	r.followLogs(ctx, DefaultJobName+"-abc")
	assert.Empty(t, buf.String())
}

func TestIsRetryableLogStreamErr(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "nil",
			err:       nil,
			retryable: false,
		},
		{
			name:      "container creating",
			err:       errors.New(`container "iqe-tests" in pod "x" is waiting to start: ContainerCreating`),
			retryable: true,
		},
		{
			name:      "pod initializing",
			err:       errors.New(`container "iqe-tests" in pod "x" is waiting to start: PodInitializing`),
			retryable: true,
		},
		{
			name:      "not found",
			err:       errors.New(`pods "x" not found`),
			retryable: false,
		},
		{
			name:      "forbidden",
			err:       errors.New(`pods "x" is forbidden`),
			retryable: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, isRetryableLogStreamErr(tc.err))
		})
	}
}
