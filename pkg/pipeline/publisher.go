package pipeline

import (
	"encoding/json"
	"os"

	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// Publisher hands the canonical Prescription JSON document off to
// whatever is waiting for it downstream: a doctor-review UI, a
// dispensing system, or (as implemented here) a rendezvous file on disk.
type Publisher interface {
	Publish(p model.Prescription) error
}

// FilePublisher writes the canonical JSON document to a configured path.
// A UI process watching that path can auto-fill its form from the latest
// run without coupling to this process.
type FilePublisher struct {
	path string
}

// NewFilePublisher builds a Publisher that writes to path.
func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{path: path}
}

func (f *FilePublisher) Publish(p model.Prescription) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

// NoopPublisher discards the document; useful for tests and for callers
// that only want the in-process return value.
type NoopPublisher struct{}

func (NoopPublisher) Publish(model.Prescription) error { return nil }
