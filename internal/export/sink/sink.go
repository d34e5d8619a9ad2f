// Package sink delivers rendered export artifacts: to a local directory, or
// to an S3 bucket with a presigned download link.
package sink

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/filex"
)

// Sink stores an artifact and returns where it can be fetched from.
type Sink interface {
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// LocalSink writes artifacts into a directory.
type LocalSink struct {
	dir string
}

var _ Sink = (*LocalSink)(nil)

func NewLocalSink(dir string) (*LocalSink, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return &LocalSink{dir: abs}, nil
}

// Deliver writes data to dir/name, replacing an earlier export of the same
// name, and returns the file path.
func (s *LocalSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: export %s: %w", common.ErrIO, name, err)
	}
	return path, nil
}
