package definition

import (
	"context"
	"fmt"
	"os"

	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// FileLoader reads a workflow definition from a local JSON file, the default
// loader for development and tests.
type FileLoader struct{}

// NewFileLoader returns a FileLoader.
func NewFileLoader() *FileLoader { return &FileLoader{} }

func (FileLoader) Load(_ context.Context, path string) (*workflow.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	return parseDefinition(raw)
}
