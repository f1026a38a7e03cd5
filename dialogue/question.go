package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
)

var promptByType = map[catalog.FieldType]string{
	catalog.FieldString:      "Please provide **%s**.",
	catalog.FieldRichText:    "Add details for **%s** (you can include formatting and attach files).",
	catalog.FieldBool:        "Is **%s** true or false?",
	catalog.FieldInt:         "Enter a number for **%s**.",
	catalog.FieldDate:        "Pick a date for **%s**.",
	catalog.FieldTime:        "Pick a time for **%s**.",
	catalog.FieldFile:        "Upload a file for **%s**.",
	catalog.FieldFileList:    "Upload file(s) for **%s**.",
	catalog.FieldChoice:      "Select **%s**.",
	catalog.FieldMultiChoice: "Select one or more options for **%s**.",
}

// Render turns one missing field into the question shown to the user.
// Enumerated fields list their literal options under the prompt.
func Render(cat *catalog.Catalog, m types.MissingField) types.Question {
	f := m.Field
	template, ok := promptByType[f.Type]
	if !ok {
		template = "Provide **%s**."
	}
	text := fmt.Sprintf(template, strings.TrimSpace(f.DisplayName()))

	var options []string
	if f.Type == catalog.FieldChoice || f.Type == catalog.FieldMultiChoice {
		options = cat.ResolveOptions(f)
		if len(options) > 0 {
			var sb strings.Builder
			sb.WriteString(text)
			sb.WriteString("\n")
			for _, opt := range options {
				sb.WriteString("\n- ")
				sb.WriteString(opt)
			}
			text = sb.String()
		}
	}
	return types.Question{
		Text:        text,
		Type:        f.Type,
		Options:     options,
		ItemIndex:   m.ItemIndex,
		FieldName:   f.Name,
		Description: f.Description,
	}
}

// RenderRetry asks the same question again, prefixed with why the last answer was rejected.
func RenderRetry(q types.Question, err error) types.Question {
	var ce *types.CoercionError
	if errors.As(err, &ce) {
		q.Text = fmt.Sprintf("Sorry, I couldn't use %q: %s.\n\n%s", ce.RawInput, ce.Reason, q.Text)
		return q
	}
	if err != nil {
		q.Text = fmt.Sprintf("Sorry, that answer didn't work: %v.\n\n%s", err, q.Text)
	}
	return q
}
