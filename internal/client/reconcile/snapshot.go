package reconcile

import (
	"context"
	"io"
	"os"
)

// SnapshotSource supplies the bytes of the annotated document when the
// server asks for a cached representation.
type SnapshotSource interface {
	Open(ctx context.Context, sourceURN string) (io.ReadCloser, error)
}

// FileSnapshot serves one local file for every transcription.
type FileSnapshot string

func (f FileSnapshot) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return os.Open(string(f))
}
