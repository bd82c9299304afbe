package smoke

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// execCopier copies the artifacts directory out of the pod the way kubectl cp
// does: a tar stream produced by running tar inside the container, unpacked
// locally. The local target directory is fixed per run regardless of which
// pod the artifacts come from.
type execCopier struct {
	client    kubernetes.Interface
	config    *rest.Config
	namespace string
	localDir  string
}

func newExecCopier(client kubernetes.Interface, config *rest.Config, namespace, localDir string) *execCopier {
	return &execCopier{
		client:    client,
		config:    config,
		namespace: namespace,
		localDir:  localDir,
	}
}

func (c *execCopier) Copy(ctx context.Context, podName string) ([]string, error) {
	if c.config == nil {
		return nil, fmt.Errorf("no rest config available for pod exec")
	}

	reader, writer := io.Pipe()
	var stderr bytes.Buffer
	go func() {
		// The remote path is relative to the container's working directory,
		// matching where the test suite writes its results.
		writer.CloseWithError(c.exec(ctx, podName, []string{"tar", "cf", "-", artifactsDirName}, writer, &stderr))
	}()

	files, err := untar(reader, c.localDir, artifactsDirName)
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w (stderr: %s)", err, msg)
		}
		return nil, err
	}
	return files, nil
}

// exec streams the command inside the pod over SPDY.
func (c *execCopier) exec(ctx context.Context, pod string, command []string, stdout, stderr io.Writer) error {
	req := c.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(c.namespace).
		Name(pod).
		SubResource("exec")

	req.VersionedParams(&corev1.PodExecOptions{
		Command: command,
		Stdout:  true,
		Stderr:  true,
	}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.config, "POST", req.URL())
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}

	if err := executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: stdout,
		Stderr: stderr,
	}); err != nil {
		return fmt.Errorf("exec %q: %w", strings.Join(command, " "), err)
	}
	return nil
}

// untar unpacks the stream into localDir, stripping the leading remoteDir
// component from entry names. Entries that would escape localDir are
// rejected. Returns the relative paths of the regular files written, sorted.
func untar(r io.Reader, localDir, remoteDir string) ([]string, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	tr := tar.NewReader(r)
	var files []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read artifact stream: %w", err)
		}

		name := path.Clean(hdr.Name)
		name = strings.TrimPrefix(name, remoteDir)
		name = strings.TrimPrefix(name, "/")
		if name == "" || name == "." {
			continue
		}
		if !filepath.IsLocal(name) {
			return nil, fmt.Errorf("artifact path %q escapes the workspace", hdr.Name)
		}
		target := filepath.Join(localDir, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return nil, err
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return nil, err
			}
			files = append(files, name)
		default:
			// Symlinks and specials are not test artifacts.
		}
	}
	sort.Strings(files)
	return files, nil
}
