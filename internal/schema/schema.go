// Package schema runs loosely-typed decoded JSON through declarative field
// schemas. Each field names its key, the check that canonicalizes a raw value,
// and the default used when the value is missing or unusable. One generic
// routine applies every schema, so entity rules live in data rather than in
// hand-written per-field branches.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Path locates a value inside the document being normalized. It seeds
// deterministic defaults and appears in logs.
type Path string

// Key descends into an object member.
func (p Path) Key(k string) Path {
	if p == "" {
		return Path(k)
	}
	return p + "." + Path(k)
}

// Index descends into an array element.
func (p Path) Index(i int) Path {
	return p + Path("["+strconv.Itoa(i)+"]")
}

// Check canonicalizes one raw value. ok=false marks the value unusable; the
// field then falls back to its default or disappears.
type Check func(raw any, at Path) (value any, ok bool)

// Field declares one member of an entity.
type Field struct {
	Key string
	// Aliases are consulted, in order, when Key is absent. Legacy spellings
	// live here.
	Aliases []string
	Check   Check
	// Required fields that end up without a value reject the whole object.
	Required bool
	// Default produces the value used when the raw value is missing or fails
	// Check. It receives the raw object so defaults can derive from siblings.
	Default func(obj map[string]any, at Path) any
}

// Schema declares an entity.
type Schema struct {
	Name   string
	Fields []Field
	// Coerce turns a non-object raw value into an object, for legacy shapes
	// that stored a bare string where an object is expected now.
	Coerce func(raw any) (map[string]any, bool)
	// After sees the normalized object and enforces rules spanning fields.
	After func(out map[string]any)
	// Rejected is called for objects dropped by Normalize.
	Rejected func(at Path, reason string)
}

// Normalize returns the canonical form of raw. Unknown members are dropped.
// ok=false means raw is not an object or lacks a required field; callers
// filtering arrays drop such elements.
func (s *Schema) Normalize(raw any, at Path) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok && s.Coerce != nil {
		obj, ok = s.Coerce(raw)
	}
	if !ok {
		s.reject(at, "not an object")
		return nil, false
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		value, found := lookup(obj, f)
		var (
			normalized any
			valid      bool
		)
		if found && value != nil {
			normalized, valid = f.Check(value, at.Key(f.Key))
		}
		if !valid && f.Default != nil {
			if d := f.Default(obj, at.Key(f.Key)); d != nil {
				normalized, valid = d, true
			}
		}
		if !valid {
			if f.Required {
				s.reject(at, "missing "+f.Key)
				return nil, false
			}
			continue
		}
		out[f.Key] = normalized
	}
	if s.After != nil {
		s.After(out)
	}
	return out, true
}

func (s *Schema) reject(at Path, reason string) {
	if s.Rejected != nil {
		s.Rejected(at, s.Name+": "+reason)
	}
}

func lookup(obj map[string]any, f Field) (any, bool) {
	if v, ok := obj[f.Key]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := obj[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

// Object nests a schema as a field check.
func Object(s *Schema) Check {
	return func(raw any, at Path) (any, bool) {
		out, ok := s.Normalize(raw, at)
		if !ok {
			return nil, false
		}
		return out, true
	}
}

// Into decodes a normalized object into its typed form.
func Into[T any](normalized any) (T, error) {
	var out T
	b, err := json.Marshal(normalized)
	if err != nil {
		return out, fmt.Errorf("schema: encode: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("schema: decode %T: %w", out, err)
	}
	return out, nil
}
