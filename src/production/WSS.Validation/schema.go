package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Kind is the wire type a field must arrive as.
type Kind int

const (
	String Kind = iota
	Integer
	Number
	// DateTimeString is an ISO-8601 (RFC 3339) timestamp carried in a string.
	DateTimeString
	// IntegerString is an integer carried in a string, as query parameters are.
	IntegerString
)

// Check is a validator tag evaluated against the coerced value, together
// with the message reported when it fails.
type Check struct {
	Tag     string
	Message string
}

// Field declares one accepted key of a payload.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	Checks   []Check
}

// Schema is an ordered set of fields. Keys not declared are dropped.
type Schema struct {
	Fields []Field
}

// Violation is a single field-level failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Violations is the complete set of failures found in one payload.
type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, violation := range v {
		parts = append(parts, violation.Path+": "+violation.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsViolations reports whether err carries validation failures.
func AsViolations(err error) (Violations, bool) {
	var violations Violations
	if errors.As(err, &violations) {
		return violations, true
	}
	return nil, false
}

// Parse coerces and checks every declared field of raw. The returned map
// holds only declared fields that were present and valid; it is meaningful
// only when no violations are returned.
func (s Schema) Parse(raw map[string]any) (map[string]any, Violations) {
	normalized := make(map[string]any, len(s.Fields))
	var violations Violations

	for _, field := range s.Fields {
		value, present := raw[field.Name]
		if !present {
			if !field.Optional {
				violations = append(violations, Violation{Path: field.Name, Message: "Required"})
			}
			continue
		}

		coerced, msg := coerce(field.Kind, value)
		if msg != "" {
			violations = append(violations, Violation{Path: field.Name, Message: msg})
			continue
		}

		failed := false
		for _, check := range field.Checks {
			if err := validate.Var(coerced, check.Tag); err != nil {
				violations = append(violations, Violation{Path: field.Name, Message: check.Message})
				failed = true
			}
		}
		if !failed {
			normalized[field.Name] = coerced
		}
	}

	return normalized, violations
}

// DecodeObject decodes a JSON object body keeping numeric literals intact so
// integers can be told apart from fractions. An empty body decodes to an
// empty object.
func DecodeObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, Violations{{Path: "body", Message: "Invalid JSON"}}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, Violations{{Path: "body", Message: "Invalid JSON"}}
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, Violations{{Path: "body", Message: "Expected object, received " + typeName(decoded)}}
	}
	return object, nil
}

func coerce(kind Kind, value any) (any, string) {
	switch kind {
	case String:
		s, ok := value.(string)
		if !ok {
			return nil, "Expected string, received " + typeName(value)
		}
		return s, ""

	case Integer:
		switch i := value.(type) {
		case int64:
			return i, ""
		case int:
			return int64(i), ""
		}
		f, ok := toFloat(value)
		if !ok {
			return nil, "Expected number, received " + typeName(value)
		}
		if n, ok := value.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, ""
			}
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, "Expected integer, received float"
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, "Number must be a safe integer"
		}
		return int64(f), ""

	case Number:
		f, ok := toFloat(value)
		if !ok {
			return nil, "Expected number, received " + typeName(value)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, "Number must be finite"
		}
		return f, ""

	case DateTimeString:
		s, ok := value.(string)
		if !ok {
			return nil, "Expected string, received " + typeName(value)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, "Invalid datetime"
		}
		return t.UTC(), ""

	case IntegerString:
		s, ok := value.(string)
		if !ok {
			return nil, "Expected string, received " + typeName(value)
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, "Expected integer, received " + strconv.Quote(s)
		}
		return i, ""
	}

	return nil, "Unsupported field type"
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		// out-of-range literals come back as ±Inf and are rejected by the caller
		return f, err == nil || errors.Is(err, strconv.ErrRange)
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int32, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}
