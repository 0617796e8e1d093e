// Package definition fetches and parses a workflow definition document
// (spec.md §6): a local JSON file, or a live AWS Step Functions state
// machine.
package definition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// Loader fetches a workflow.Definition identified by arn. For the file
// loader arn is a filesystem path; for the Step Functions loader it is the
// state machine's real ARN.
type Loader interface {
	Load(ctx context.Context, arn string) (*workflow.Definition, error)
}

func parseDefinition(raw []byte) (*workflow.Definition, error) {
	var def workflow.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("definition: parse document: %w", err)
	}
	return &def, nil
}
