package write

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// field is one key/value pair of a record in document order.
// A nil value is SQL NULL; null marks a JSON null, which cannot be bound.
type field struct {
	name  string
	value *string
	null  bool
}

// record is a parsed JSON object.
type record struct {
	fields []field
	index  map[string]int
}

func (r *record) lookup(name string) (field, bool) {
	i, ok := r.index[name]
	if !ok {
		return field{}, false
	}
	return r.fields[i], true
}

// parseRecord decodes one JSON object keeping its keys in document order.
// Strings are kept verbatim, numbers and booleans by their literal text, and
// nested values as compact JSON. An empty string is NULL.
func parseRecord(n int, doc string) (*record, error) {
	dec := json.NewDecoder(strings.NewReader(doc))

	tok, err := dec.Token()
	if err != nil {
		return nil, recordError(n, "is not valid JSON")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, recordError(n, "must be a JSON object")
	}

	rec := &record{index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, recordError(n, "is not valid JSON")
		}
		name, ok := tok.(string)
		if !ok {
			return nil, recordError(n, "is not valid JSON")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, recordError(n, "is not valid JSON")
		}
		f, err := decodeValue(name, raw)
		if err != nil {
			return nil, recordError(n, err.Error())
		}

		if i, dup := rec.index[name]; dup {
			rec.fields[i] = f
			continue
		}
		rec.index[name] = len(rec.fields)
		rec.fields = append(rec.fields, f)
	}

	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, recordError(n, "is not valid JSON")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, recordError(n, "has trailing data after the object")
	}
	return rec, nil
}

func decodeValue(name string, raw json.RawMessage) (field, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return field{}, fmt.Errorf("field %q has no value", name)
	}

	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return field{}, fmt.Errorf("field %q is not a valid string", name)
		}
		if text == "" {
			return field{name: name}, nil
		}
	case 'n':
		return field{name: name, null: true}, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return field{}, fmt.Errorf("field %q is not valid JSON", name)
		}
		text = buf.String()
	default:
		text = string(raw)
	}
	return field{name: name, value: &text}, nil
}

func recordError(n int, reason string) error {
	return &core.InvalidInputError{Field: fmt.Sprintf("records[%d]", n), Reason: reason}
}
