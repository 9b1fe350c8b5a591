// internal/validation/validation.go
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"kitchenops/internal/data"
)

// Error is a structured rejection listing messages per field.
type Error struct {
	Fields map[string][]string `json:"fieldErrors"`
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// orNil returns e only when it holds at least one message.
func (e *Error) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FieldError builds a single-field rejection, used for query parameters.
func FieldError(field, msg string) *Error {
	e := &Error{}
	e.add(field, msg)
	return e
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// IsUUID reports whether s is a canonical 36-character UUID.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// =============================================================================
// FIELD READER
// =============================================================================

// reader pulls typed fields out of a decoded JSON object and collects errors.
type reader struct {
	obj    map[string]any
	prefix string
	errs   *Error
}

func newReader(raw any) (*reader, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, FieldError("_root", "Expected object, received "+typeName(raw))
	}
	return &reader{obj: obj, errs: &Error{}}, nil
}

func (r *reader) child(obj map[string]any, prefix string) *reader {
	return &reader{obj: obj, prefix: prefix, errs: r.errs}
}

func (r *reader) fail(key, msg string) {
	r.errs.add(r.prefix+key, msg)
}

func (r *reader) lookup(key string, required bool) (any, bool) {
	v, ok := r.obj[key]
	if !ok && required {
		r.fail(key, "Required")
	}
	return v, ok
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64, int:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// str reads a string of min..max characters. Absent yields Set false; null
// yields Set true with nil Value when nullable.
func (r *reader) str(key string, min, max int, required, nullable bool) data.Nullable[string] {
	v, ok := r.lookup(key, required)
	if !ok {
		return data.Nullable[string]{}
	}
	if v == nil {
		if nullable {
			return data.Null[string]()
		}
		r.fail(key, "Expected string, received null")
		return data.Nullable[string]{}
	}
	s, isStr := v.(string)
	if !isStr {
		r.fail(key, "Expected string, received "+typeName(v))
		return data.Nullable[string]{}
	}
	n := utf8.RuneCountInString(s)
	if n < min {
		r.fail(key, fmt.Sprintf("String must contain at least %d character(s)", min))
		return data.Nullable[string]{}
	}
	if max > 0 && n > max {
		r.fail(key, fmt.Sprintf("String must contain at most %d character(s)", max))
		return data.Nullable[string]{}
	}
	return data.Some(s)
}

func (r *reader) uuid(key string, required, nullable bool) data.Nullable[string] {
	v := r.str(key, 0, 0, required, nullable)
	if v.Value != nil && !IsUUID(*v.Value) {
		r.fail(key, "Invalid uuid")
		return data.Nullable[string]{}
	}
	return v
}

func (r *reader) date(key string, required bool) *string {
	v := r.str(key, 0, 0, required, false)
	if v.Value != nil && !IsDate(*v.Value) {
		r.fail(key, "Use YYYY-MM-DD")
		return nil
	}
	return v.Value
}

func (r *reader) timestamp(key string) data.Nullable[time.Time] {
	v := r.str(key, 0, 0, false, true)
	if !v.Set {
		return data.Nullable[time.Time]{}
	}
	if v.Value == nil {
		return data.Null[time.Time]()
	}
	t, err := time.Parse(time.RFC3339Nano, *v.Value)
	if err != nil {
		r.fail(key, "Invalid datetime")
		return data.Nullable[time.Time]{}
	}
	return data.Some(t.UTC())
}

func (r *reader) number(key string, required bool) *float64 {
	v, ok := r.lookup(key, required)
	if !ok {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			r.fail(key, "Expected number, received "+n.String())
			return nil
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		r.fail(key, "Expected number, received "+typeName(v))
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.fail(key, "Expected number, received nan")
		return nil
	}
	return &f
}

// intRange reads an integer in [min, max]; max < min means up to MaxInt32.
func (r *reader) intRange(key string, min, max int, required bool) *int {
	if max < min {
		max = math.MaxInt32
	}
	f := r.number(key, required)
	if f == nil {
		return nil
	}
	if *f != math.Trunc(*f) {
		r.fail(key, "Expected integer, received float")
		return nil
	}
	if *f < float64(min) {
		r.fail(key, fmt.Sprintf("Number must be greater than or equal to %d", min))
		return nil
	}
	if *f > float64(max) {
		r.fail(key, fmt.Sprintf("Number must be less than or equal to %d", max))
		return nil
	}
	n := int(*f)
	return &n
}

func (r *reader) nonNegative(key string, required bool) *float64 {
	f := r.number(key, required)
	if f != nil && *f < 0 {
		r.fail(key, "Number must be greater than or equal to 0")
		return nil
	}
	return f
}

func (r *reader) boolean(key string) *bool {
	v, ok := r.lookup(key, false)
	if !ok {
		return nil
	}
	b, isBool := v.(bool)
	if !isBool {
		r.fail(key, "Expected boolean, received "+typeName(v))
		return nil
	}
	return &b
}

func (r *reader) enum(key string, allowed []string) *string {
	v := r.str(key, 0, 0, false, false)
	if v.Value == nil {
		return nil
	}
	for _, a := range allowed {
		if *v.Value == a {
			return v.Value
		}
	}
	r.fail(key, fmt.Sprintf("Invalid enum value. Expected '%s', received '%s'", strings.Join(allowed, "' | '"), *v.Value))
	return nil
}

func (r *reader) err() error { return r.errs.orNil() }
