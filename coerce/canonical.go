package coerce

import (
	"encoding/json"
	"math"

	"github.com/tbxark/ticketagent/catalog"
)

// Canonical restores the Go type of a stored value after it went through a
// serializer: whole numbers become int, lists become []string.
func Canonical(field catalog.FieldSpec, v any) any {
	switch field.Type {
	case catalog.FieldInt:
		switch n := v.(type) {
		case float64:
			if n == math.Trunc(n) {
				return int(n)
			}
		case float32:
			if float64(n) == math.Trunc(float64(n)) {
				return int(n)
			}
		case int64:
			return int(n)
		case int32:
			return int(n)
		case uint64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	case catalog.FieldMultiChoice, catalog.FieldFileList:
		if list, ok := v.([]any); ok {
			out := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return v
				}
				out = append(out, s)
			}
			return out
		}
	}
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}
