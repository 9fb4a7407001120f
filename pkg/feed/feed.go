package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"watson-dash/pkg/fault"
)

// Feed is the parsed content of the gauge export file. The schema is owned
// by the exporter; only array length is inspected.
type Feed struct {
	Path    string
	Records int
	Data    json.RawMessage
}

// IsSequence reports whether the document is a JSON array.
func (f *Feed) IsSequence() bool {
	return len(f.Data) > 0 && f.Data[0] == '['
}

// Empty reports whether the document carries no data: null, false, 0, "",
// [] or {}.
func (f *Feed) Empty() bool {
	var v interface{}
	if err := json.Unmarshal(f.Data, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

// Load reads and parses the feed at path. Errors are *fault.Error with kind
// NotFound or ParseError. No retry.
func Load(path string) (*Feed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fault.New(fault.NotFound, "feed load", err)
		}
		return nil, fault.New(fault.ParseError, "feed load", err)
	}
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, fault.New(fault.ParseError, "feed load", fmt.Errorf("%s: invalid JSON", path))
	}

	f := &Feed{Path: path, Data: json.RawMessage(raw)}
	if f.IsSequence() {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fault.New(fault.ParseError, "feed load", err)
		}
		f.Records = len(items)
	}
	return f, nil
}
