package propagate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// ExtractItems evaluates path against inputJSON and returns each element of
// the resulting array, re-marshaled to its own JSON document. Per spec.md's
// resolved Open Question, path must resolve to exactly one array value:
// zero or more-than-one top-level match is an error, and a match that isn't
// an array is an error.
func ExtractItems(inputJSON, path string) ([]string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(inputJSON), &data); err != nil {
		return nil, fmt.Errorf("items_path: invalid input JSON: %w", err)
	}

	result, err := jsonpath.Get(path, data)
	if err != nil {
		if strings.Contains(err.Error(), "unknown key") || strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %s", workflow.ErrItemsPathNoMatch, path)
		}
		return nil, fmt.Errorf("items_path %q: %w", path, err)
	}

	matches, isMultiMatch := result.([]interface{})
	if isMultiMatch && looksLikeMultiMatch(path) {
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", workflow.ErrItemsPathNoMatch, path)
		}
		if len(matches) > 1 {
			return nil, fmt.Errorf("%w: %s", workflow.ErrItemsPathAmbiguous, path)
		}
		result = matches[0]
	}

	arr, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s", workflow.ErrItemsPathNotArray, path)
	}

	items := make([]string, len(arr))
	for i, v := range arr {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("items_path: marshal item %d: %w", i, err)
		}
		items[i] = string(b)
	}
	return items, nil
}

// looksLikeMultiMatch reports whether path uses a wildcard/recursive
// construct that could legitimately return several independent matches
// rather than a single array value, so the multi-match guard is only
// applied where ambiguity is actually possible.
func looksLikeMultiMatch(path string) bool {
	return strings.Contains(path, "..") || strings.Contains(path, "*")
}

func joinJSONArray(elements []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range elements {
		if i > 0 {
			b.WriteByte(',')
		}
		if e == "" {
			b.WriteString("null")
		} else {
			b.WriteString(e)
		}
	}
	b.WriteByte(']')
	return b.String()
}
