package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalid matches every FieldErrors value via errors.Is.
var ErrInvalid = errors.New("validation failed")

// FieldErrors maps a dotted field path ("customer.email", "trucks.0.year")
// to the message shown next to that field. Only the first failure of each
// field is kept.
type FieldErrors map[string]string

// Error implements the error interface
func (e FieldErrors) Error() string {
	fields := e.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets callers test for ErrInvalid without knowing the concrete type.
func (e FieldErrors) Is(target error) bool {
	return target == ErrInvalid
}

// Fields returns the failing field paths in sorted order.
func (e FieldErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e FieldErrors) add(path, msg string) {
	if _, exists := e[path]; !exists {
		e[path] = msg
	}
}

// AsFieldErrors extracts the field errors carried by err, if any.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

const (
	msgRequired    = "Requerido"
	msgInvalidType = "Tipo inválido"
	msgNotNumber   = "Debe ser un número"
	msgNotInteger  = "Debe ser un número entero"
	msgNonNegative = "Debe ser >= 0"
	msgPositive    = "Debe ser > 0"
	msgOutOfRange  = "Número fuera de rango"
)
