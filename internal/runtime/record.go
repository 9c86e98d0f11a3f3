package runtime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Record is one split input row. Field accessors are 1-based.
type Record []string

// FieldError reports a field that could not be coerced to the requested type.
type FieldError struct {
	Field int
	Value string
	Type  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d: cannot convert %q to %s: %v", e.Field, e.Value, e.Type, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Get returns field n, or "" when the record is shorter.
func (r Record) Get(n int) string {
	if n < 1 || n > len(r) {
		return ""
	}
	return r[n-1]
}

// Int returns field n as an int. Missing or empty fields yield 0.
func (r Record) Int(n int) int {
	s := strings.TrimSpace(r.Get(n))
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		panic(&FieldError{Field: n, Value: s, Type: "int", Err: err})
	}
	return v
}

// Float returns field n as a float64. Missing or empty fields yield 0.
func (r Record) Float(n int) float64 {
	s := strings.TrimSpace(r.Get(n))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(&FieldError{Field: n, Value: s, Type: "float", Err: err})
	}
	return v
}

// Bool returns field n parsed with strconv.ParseBool. Missing or empty fields yield false.
func (r Record) Bool(n int) bool {
	s := strings.TrimSpace(r.Get(n))
	if s == "" {
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		panic(&FieldError{Field: n, Value: s, Type: "bool", Err: err})
	}
	return v
}

// JSON decodes field n. Missing or empty fields yield nil.
func (r Record) JSON(n int) any {
	s := r.Get(n)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(&FieldError{Field: n, Value: s, Type: "json", Err: err})
	}
	return v
}

// Zip pairs header names with values, stopping at the shorter of the two.
func (r Record) Zip(values Record) map[string]string {
	n := len(r)
	if len(values) < n {
		n = len(values)
	}
	m := make(map[string]string, n)
	for i := 0; i < n; i++ {
		m[r[i]] = values[i]
	}
	return m
}

func splitFields(line, sep string) Record {
	return Record(strings.Split(line, sep))
}

func splitPattern(re *regexp.Regexp, line string) Record {
	return Record(re.Split(line, -1))
}

// matchFields returns every match of re in line, or the groups of the first
// match when re has capture groups.
func matchFields(re *regexp.Regexp, line string) Record {
	if re.NumSubexp() == 0 {
		return Record(re.FindAllString(line, -1))
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return Record{}
	}
	return Record(m[1:])
}
