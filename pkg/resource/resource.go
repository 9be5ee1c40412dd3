package resource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrShape is returned when a field that every resource must carry is missing.
	ErrShape = errors.New("resource shape violation")

	// ErrNotNumeric is returned when a count field holds something other than an integer.
	ErrNotNumeric = errors.New("field is not numeric")
)

// Resource is one API resource decoded as a loosely-typed key-value tree.
type Resource map[string]any

// Decode reads a single JSON object into a Resource. Numbers are kept as json.Number.
func Decode(r io.Reader) (Resource, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var res Resource
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	return res, nil
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (Resource, error) {
	return Decode(bytes.NewReader(data))
}

// Lookup walks path through nested objects. The second result is false when any
// segment is absent, is not an object, or the leaf is JSON null.
func (r Resource) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// String returns the string at path, or nil when the field is absent.
func (r Resource) String(path ...string) *string {
	v, ok := r.Lookup(path...)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return &s
}

// MustString returns the string at path and fails with ErrShape when it is absent.
func (r Resource) MustString(path ...string) (string, error) {
	s := r.String(path...)
	if s == nil {
		return "", fmt.Errorf("%w: missing %s", ErrShape, strings.Join(path, "."))
	}
	return *s, nil
}

// Count returns the integer at path, or nil when absent. The API reports counts
// as decimal strings; plain JSON numbers are accepted too.
func (r Resource) Count(path ...string) (*int64, error) {
	v, ok := r.Lookup(path...)
	if !ok {
		return nil, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}
	return &n, nil
}

// Object returns the nested object at path as a Resource.
func (r Resource) Object(path ...string) (Resource, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return nil, false
	}
	obj, ok := asObject(v)
	if !ok {
		return nil, false
	}
	return Resource(obj), true
}

// Items returns the "items" array of a list response. Entries that are not
// objects are skipped.
func (r Resource) Items() []Resource {
	v, ok := r.Lookup("items")
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]Resource, 0, len(arr))
	for _, item := range arr {
		if obj, ok := asObject(item); ok {
			items = append(items, Resource(obj))
		}
	}
	return items
}

// NextPageToken returns the continuation token of a list response, "" when exhausted.
func (r Resource) NextPageToken() string {
	if s := r.String("nextPageToken"); s != nil {
		return *s
	}
	return ""
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Resource:
		return obj, true
	default:
		return nil, false
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
		return parsed, nil
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, n.String())
		}
		return parsed, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%w: %v", ErrNotNumeric, n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}
