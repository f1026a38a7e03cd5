package patch

import (
	"fmt"
	"strings"
)

// ValidatePatchOperations rejects operations outside allowedPaths. A "*" segment
// in an allowed path matches any single segment. An empty set allows everything.
func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	if len(ops) == 0 {
		return nil
	}
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationReplace, OperationRemove:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if err := validatePathAllowed(op.Path, allowedPaths); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validatePathAllowed(path string, allowedPaths map[string]bool) error {
	if len(allowedPaths) == 0 || allowedPaths[path] {
		return nil
	}
	for pattern := range allowedPaths {
		if matchWildcard(path, pattern) {
			return nil
		}
	}
	return fmt.Errorf("path %q is not in the allowed paths set", path)
}

func matchWildcard(path, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return false
	}
	segments := strings.Split(path, "/")
	patternSegments := strings.Split(pattern, "/")
	if len(segments) != len(patternSegments) {
		return false
	}
	for i, seg := range patternSegments {
		if seg != "*" && seg != segments[i] {
			return false
		}
	}
	return true
}
