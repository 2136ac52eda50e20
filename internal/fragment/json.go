package fragment

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is reported (wrapped in a ParseError) when a JSON fragment
// is not syntactically valid.
var ErrInvalidJSON = errors.New("fragment: invalid JSON document")

// parseJSON decodes a JSON fragment with gjson so a syntactically valid
// document is always accepted and entry-level problems are handled by the
// shared per-entry drop rules.
func parseJSON(service string, data []byte) (ParseResult, error) {
	if !gjson.ValidBytes(data) {
		return ParseResult{}, &ParseError{Service: service, Field: "document", Err: ErrInvalidJSON}
	}

	root := gjson.ParseBytes(data)
	doc, ok := root.Value().(map[string]any)
	if !ok {
		// Valid JSON but not an object (e.g. an array or scalar): treat the
		// routing structure as absent, an empty contribution.
		return ParseResult{}, nil
	}

	return fromDocument(service, doc), nil
}
