package patch

import (
	"strconv"
	"strings"
)

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

// Operation is a single RFC6902 JSON Patch operation against a serialized ticket plan.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// FormPath is the JSON pointer of one form field of one plan item.
func FormPath(itemIndex int, fieldName string) string {
	return "/items/" + strconv.Itoa(itemIndex) + "/form/" + escapeJSONPointer(fieldName)
}

func escapeJSONPointer(token string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(token)
}

func unescapeJSONPointer(token string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
}
