package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
)

const sampleManifest = `---
apiVersion: v1
kind: ServiceAccount
metadata:
  name: rbac-smoke-tests-iqe
  namespace: ${NAMESPACE}
---
apiVersion: batch/v1
kind: Job
metadata:
  name: ${JOB_NAME}
  namespace: ${NAMESPACE}
spec:
  backoffLimit: 0
  template:
    spec:
      restartPolicy: Never
      containers:
        - name: iqe-tests
          image: quay.io/cloudservices/iqe-tests:${IQE_IMAGE_TAG}
          command:
            - /bin/sh
            - -c
            - echo "home is ${HOME}" && iqe tests plugin rbac
`

func TestParseManifest(t *testing.T) {
	params := Params{
		"NAMESPACE":     "test-namespace",
		"JOB_NAME":      "rbac-smoke-tests-iqe",
		"IQE_IMAGE_TAG": "latest",
	}

	objs, err := ParseManifest([]byte(sampleManifest), params)
	require.NoError(t, err)
	require.Len(t, objs, 2)

	sa, ok := objs[0].(*corev1.ServiceAccount)
	require.True(t, ok, "first object should be a ServiceAccount")
	assert.Equal(t, "rbac-smoke-tests-iqe", sa.Name)
	assert.Equal(t, "test-namespace", sa.Namespace)

	job, ok := objs[1].(*batchv1.Job)
	require.True(t, ok, "second object should be a Job")
	assert.Equal(t, "rbac-smoke-tests-iqe", job.Name)
	require.Len(t, job.Spec.Template.Spec.Containers, 1)
	container := job.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "quay.io/cloudservices/iqe-tests:latest", container.Image)

	// References without a matching parameter pass through untouched so
	// shell fragments in commands survive substitution.
	require.Len(t, container.Command, 3)
	assert.Contains(t, container.Command[2], "${HOME}")
}

func TestParseManifest_Empty(t *testing.T) {
	_, err := ParseManifest([]byte("---\n# nothing here\n"), nil)
	assert.Error(t, err)
}

func TestParseManifest_UnknownKind(t *testing.T) {
	manifest := `
apiVersion: example.com/v1
kind: Gizmo
metadata:
  name: whatsit
`
	_, err := ParseManifest([]byte(manifest), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gizmo")
}

func TestLoadManifest_StockJob(t *testing.T) {
	params := Params{
		"NAMESPACE":             "test-namespace",
		"JOB_NAME":              "rbac-smoke-tests-iqe",
		"IQE_PLUGINS":           "rbac",
		"IQE_MARKER_EXPRESSION": "smoke",
		"IQE_FILTER_EXPRESSION": "",
		"IQE_IMAGE_TAG":         "latest",
	}

	objs, err := LoadManifest("../../deploy/iqe-smoke-job.yaml", params)
	require.NoError(t, err)
	require.Len(t, objs, 4)

	job, ok := objs[len(objs)-1].(*batchv1.Job)
	require.True(t, ok, "last object should be the Job")
	assert.Equal(t, "rbac-smoke-tests-iqe", job.Name)
	assert.Equal(t, "test-namespace", job.Namespace)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest("does-not-exist.yaml", nil)
	assert.Error(t, err)
}
