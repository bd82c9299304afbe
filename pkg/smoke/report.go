package smoke

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RedHatInsights/iqe-smoke-runner/pkg/serializer"
)

// Artifact describes one collected result file.
type Artifact struct {
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"sizeBytes" yaml:"sizeBytes"`
}

// report prints the collected artifact listing for operator confirmation.
func (r *Runner) report(ctx context.Context, files []string) error {
	fmt.Fprintf(r.out, "\nSmoke-test artifacts in %s:\n", r.artifactsDir())
	if len(files) == 0 {
		fmt.Fprintln(r.out, "(none)")
		return nil
	}

	entries := make([]Artifact, 0, len(files))
	for _, f := range files {
		entry := Artifact{Path: f}
		if info, err := os.Stat(filepath.Join(r.artifactsDir(), filepath.FromSlash(f))); err == nil {
			entry.SizeBytes = info.Size()
		}
		entries = append(entries, entry)
	}
	return serializer.NewWriter(r.cfg.ReportFormat, r.out).Serialize(ctx, entries)
}
