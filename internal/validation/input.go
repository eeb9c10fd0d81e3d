package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input holds raw field values as submitted by a form, a CLI flag set or a
// JSON/YAML document. Values are commonly strings; numeric fields are
// coerced during parsing.
type Input map[string]any

// InputOf converts a typed record into Input so that typed callers go
// through the same schema as raw submissions.
func InputOf(v any) (Input, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	return in, nil
}

// Clone returns a shallow copy of the input.
func (in Input) Clone() Input {
	out := make(Input, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)
	serviceCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// fields walks one object of the input, recording failures under dotted
// paths in a shared FieldErrors.
type fields struct {
	in   map[string]any
	path string
	errs FieldErrors
}

func newFields(in Input) *fields {
	return &fields{in: in, errs: FieldErrors{}}
}

func (f *fields) key(name string) string {
	if f.path == "" {
		return name
	}
	return f.path + "." + name
}

func (f *fields) fail(name, msg string) {
	f.errs.add(f.key(name), msg)
}

func (f *fields) value(name string) (any, bool) {
	v, ok := f.in[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// str reads a required string of at least min characters.
func (f *fields) str(name string, min int, msg string) string {
	v, ok := f.value(name)
	if !ok {
		f.fail(name, msgRequired)
		return ""
	}
	s, isString := v.(string)
	if !isString {
		f.fail(name, msgInvalidType)
		return ""
	}
	if utf8.RuneCountInString(s) < min {
		f.fail(name, msg)
	}
	return s
}

// optionalStr reads a string that defaults to "".
func (f *fields) optionalStr(name string) string {
	v, ok := f.value(name)
	if !ok {
		return ""
	}
	s, isString := v.(string)
	if !isString {
		f.fail(name, msgInvalidType)
		return ""
	}
	return s
}

// urlOrEmpty reads a string that is either empty or an absolute URL.
func (f *fields) urlOrEmpty(name, msg string) string {
	s := f.optionalStr(name)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		f.fail(name, msg)
	}
	return s
}

func (f *fields) email(name, msg string) string {
	v, ok := f.value(name)
	if !ok {
		f.fail(name, msgRequired)
		return ""
	}
	s, isString := v.(string)
	if !isString {
		f.fail(name, msgInvalidType)
		return ""
	}
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") || !emailPattern.MatchString(s) {
		f.fail(name, msg)
	}
	return s
}

// number reads a numeric field. Numeric strings are coerced and a blank
// string counts as zero; a missing value is not a number.
func (f *fields) number(name string) (float64, bool) {
	v, ok := f.value(name)
	if !ok {
		f.fail(name, msgNotNumber)
		return 0, false
	}
	n, ok := toNumber(v)
	if !ok {
		f.fail(name, msgNotNumber)
		return 0, false
	}
	return n, true
}

func (f *fields) nonNegative(name, msg string) float64 {
	n, ok := f.number(name)
	if ok && n < 0 {
		f.fail(name, msg)
	}
	return n
}

func (f *fields) integer(name string) (int, bool) {
	n, ok := f.number(name)
	if !ok {
		return 0, false
	}
	if n != math.Trunc(n) {
		f.fail(name, msgNotInteger)
		return 0, false
	}
	if math.Abs(n) > math.MaxInt32 {
		f.fail(name, msgOutOfRange)
		return 0, false
	}
	return int(n), true
}

// optionalInteger reads an integer that defaults to 0 when absent.
func (f *fields) optionalInteger(name string) (int, bool) {
	if _, ok := f.value(name); !ok {
		return 0, false
	}
	return f.integer(name)
}

// optionalNonNegative reads a number that defaults to 0 when absent.
func (f *fields) optionalNonNegative(name, msg string) float64 {
	if _, ok := f.value(name); !ok {
		return 0
	}
	return f.nonNegative(name, msg)
}

// object descends into a required nested object.
func (f *fields) object(name string) *fields {
	v, ok := f.value(name)
	if !ok {
		f.fail(name, msgRequired)
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		f.fail(name, msgInvalidType)
		return nil
	}
	return &fields{in: m, path: f.key(name), errs: f.errs}
}

// array descends into an optional list of objects; a missing list is empty.
func (f *fields) array(name string) []*fields {
	v, ok := f.value(name)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		f.fail(name, msgInvalidType)
		return nil
	}
	out := make([]*fields, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s.%d", f.key(name), i)
		m, ok := asMap(item)
		if !ok {
			f.errs.add(path, msgInvalidType)
			continue
		}
		out = append(out, &fields{in: m, path: path, errs: f.errs})
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Input:
		return m, true
	default:
		return nil, false
	}
}

func toNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case bool:
		if x {
			n = 1
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func finish[E any](e E, errs FieldErrors) (E, error) {
	if len(errs) > 0 {
		var zero E
		return zero, errs
	}
	return e, nil
}
