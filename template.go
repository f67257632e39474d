package janus

import (
	"errors"

	"github.com/gustavorviana/JanusRequest/internal/memberpath"
)

// NullPlaceholder is the literal substituted when a placeholder path
// resolves to nil.
const NullPlaceholder = "Null"

// placeholder is a balanced {...} span found in a path template.
type placeholder struct {
	name   string
	start  int
	length int
}

// scanPlaceholders collects every balanced {...} span in a single
// left-to-right pass. Unmatched or unbalanced braces are ignored, not an
// error.
func scanPlaceholders(template string) []placeholder {
	var spans []placeholder
	open := -1
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			open = i
		case '}':
			if open < 0 {
				continue
			}
			spans = append(spans, placeholder{
				name:   template[open+1 : i],
				start:  open,
				length: i - open + 1,
			})
			open = -1
		}
	}
	return spans
}

// ExpandTemplate replaces {path} placeholders in a path template with
// string-formatted values resolved against v's member index. A template with
// no placeholders is returned unchanged without requiring a non-nil v.
// Placeholders are processed from last to first so earlier offsets stay
// valid after each replacement. A resolved nil renders as "Null".
func ExpandTemplate(template string, v any) (string, error) {
	return expandTemplate(template, v, DefaultFormats())
}

func expandTemplate(template string, v any, f Formats) (string, error) {
	spans := scanPlaceholders(template)
	if len(spans) == 0 {
		return template, nil
	}
	if v == nil {
		return "", &Error{
			Type:    ErrorTypeValidation,
			Message: "path template has placeholders but no request object was provided",
		}
	}

	idx := memberpath.IndexOf(v)
	out := template
	for i := len(spans) - 1; i >= 0; i-- {
		span := spans[i]
		resolved, err := idx.Resolve(v, span.name)
		if err != nil {
			return "", pathResolutionError(span.name, err)
		}
		var s string
		if resolved == nil {
			s = NullPlaceholder
		} else {
			s = FormatValue(resolved, f)
		}
		out = out[:span.start] + s + out[span.start+span.length:]
	}
	return out, nil
}

// pathResolutionError wraps a memberpath failure into the typed taxonomy.
func pathResolutionError(path string, err error) error {
	var pe *memberpath.PathError
	if errors.As(err, &pe) || errors.Is(err, memberpath.ErrMultipleCalls) {
		return &Error{
			Type:    ErrorTypeInvalidPath,
			Message: "resolving path " + path,
			Cause:   err,
		}
	}
	return err
}
