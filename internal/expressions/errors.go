package expressions

import (
	"errors"
	"slices"
	"strings"

	"github.com/rendis/flowgate/pkg/schema"
)

// asFlowError extracts a FlowError from an evaluation error chain. Engines
// may wrap errors returned by environment builtins in their own positional
// error types, so a message-level match on the error code is kept as a
// fallback for chains that do not implement Unwrap.
func asFlowError(err error, target **schema.FlowError) bool {
	if errors.As(err, target) {
		return true
	}
	if strings.Contains(err.Error(), schema.ErrCodeUnsafeBlocked) {
		*target = schema.NewError(schema.ErrCodeUnsafeBlocked, err.Error()).WithCause(err)
		return true
	}
	return false
}

// envKeys returns the sorted keys of an environment map for error reporting.
func envKeys(m map[string]any) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
