package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
  - name: test-cluster
    cluster:
      server: https://127.0.0.1:6443
contexts:
  - name: test-context
    context:
      cluster: test-cluster
      user: test-user
current-context: test-context
users:
  - name: test-user
    user:
      token: not-a-real-token
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))
	return path
}

func TestBuildKubeClient(t *testing.T) {
	clientset, config, err := BuildKubeClient(writeKubeconfig(t))
	require.NoError(t, err)
	require.NotNil(t, clientset)
	require.NotNil(t, config)
	assert.Equal(t, "https://127.0.0.1:6443", config.Host)
}

func TestBuildKubeClient_MissingFile(t *testing.T) {
	_, _, err := BuildKubeClient(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestBuildKubeClient_EnvFallback(t *testing.T) {
	t.Setenv("KUBECONFIG", writeKubeconfig(t))

	clientset, config, err := BuildKubeClient("")
	require.NoError(t, err)
	require.NotNil(t, clientset)
	assert.Equal(t, "https://127.0.0.1:6443", config.Host)
}
