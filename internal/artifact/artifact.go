// Package artifact delivers export artifacts to a directory or an S3
// compatible bucket
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wader/mpowiggle/internal/metrics"
)

// FileSink writes artifacts into Dir, replacing existing files
type FileSink struct {
	Dir string
}

func (s *FileSink) Put(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	// write to temp file and rename so a reader never sees a partial artifact
	tmp, err := os.CreateTemp(s.Dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	metrics.ArtifactBytesTotal.WithLabelValues("file").Add(float64(len(data)))
	return path, nil
}
