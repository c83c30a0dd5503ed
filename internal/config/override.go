package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownParam = errors.New("config: unknown physics parameter")
	ErrBadParam     = errors.New("config: bad physics parameter value")
)

// With returns a copy of p with the fields named by their yaml keys
// replaced. Values for integer fields must be whole numbers.
func (p Physics) With(params map[string]float64) (Physics, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return p, err
	}
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return p, err
	}
	for k, v := range params {
		if _, ok := fields[k]; !ok {
			return p, fmt.Errorf("%w: %q", ErrUnknownParam, k)
		}
		if integerFields[k] && v != math.Trunc(v) {
			return p, fmt.Errorf("%w: %q takes whole numbers, got %v", ErrBadParam, k, v)
		}
		fields[k] = v
	}
	if data, err = yaml.Marshal(fields); err != nil {
		return p, err
	}
	var out Physics
	if err := yaml.Unmarshal(data, &out); err != nil {
		return p, fmt.Errorf("config: apply %v: %w", params, err)
	}
	return out, nil
}

// integerFields holds the yaml keys of the int-typed Physics fields. Their
// marshalled form cannot tell them apart from whole floats.
var integerFields = func() map[string]bool {
	out := make(map[string]bool)
	t := reflect.TypeOf(Physics{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Int {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		out[name] = true
	}
	return out
}()
