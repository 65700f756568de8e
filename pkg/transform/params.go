package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingParam is returned when a required parameter is absent.
var ErrMissingParam = errors.New("transform: missing parameter")

// Params holds transform parameters as decoded from YAML.
type Params map[string]interface{}

// Int returns the named parameter as an int, or def when absent.
func (p Params) Int(name string, def int) (int, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: %v is not an integer", name, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s: unsupported type %T", name, v)
	}
}

// RequiredInt returns the named parameter as an int and fails when it is absent.
func (p Params) RequiredInt(name string) (int, error) {
	if _, ok := p[name]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	return p.Int(name, 0)
}

// PositiveInt returns a required parameter that must be greater than zero.
func (p Params) PositiveInt(name string) (int, error) {
	v, err := p.RequiredInt(name)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, v)
	}
	return v, nil
}

// String returns the named parameter as a lower-case string, or def when absent.
func (p Params) String(name, def string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected a string, got %T", name, v)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}
