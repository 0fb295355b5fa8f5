package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParamKind identifies the scalar type held by a ParamValue.
type ParamKind string

const (
	ParamString ParamKind = "string"
	ParamInt    ParamKind = "int"
	ParamFloat  ParamKind = "float"
	ParamBool   ParamKind = "bool"
)

// ParamValue is a scalar generation parameter. The zero value is the empty string.
//
// Values keep their type through JSON and YAML round trips so that "1", 1 and
// 1.0 never collapse into each other when a run is fingerprinted.
type ParamValue struct {
	kind ParamKind
	s    string
	i    int64
	f    float64
	b    bool
}

func String(s string) ParamValue { return ParamValue{kind: ParamString, s: s} }
func Int(i int64) ParamValue     { return ParamValue{kind: ParamInt, i: i} }
func Float(f float64) ParamValue { return ParamValue{kind: ParamFloat, f: f} }
func Bool(b bool) ParamValue     { return ParamValue{kind: ParamBool, b: b} }

// ParamFromAny converts a decoded scalar into a ParamValue. Maps, slices and
// nil are rejected.
func ParamFromAny(v any) (ParamValue, error) {
	switch val := v.(type) {
	case ParamValue:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(int64(val)), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil && !strings.ContainsAny(val.String(), ".eE") {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return ParamValue{}, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return Float(f), nil
	case nil:
		return ParamValue{}, fmt.Errorf("parameter value is null")
	default:
		return ParamValue{}, fmt.Errorf("unsupported parameter value type %T (only string, number and bool are allowed)", v)
	}
}

// Kind returns the scalar type. The zero value reports ParamString.
func (p ParamValue) Kind() ParamKind {
	if p.kind == "" {
		return ParamString
	}
	return p.kind
}

// Any returns the value as a plain Go scalar (string, int64, float64 or bool).
func (p ParamValue) Any() any {
	switch p.Kind() {
	case ParamInt:
		return p.i
	case ParamFloat:
		return p.f
	case ParamBool:
		return p.b
	default:
		return p.s
	}
}

// AsFloat returns numeric values as float64.
func (p ParamValue) AsFloat() (float64, bool) {
	switch p.Kind() {
	case ParamInt:
		return float64(p.i), true
	case ParamFloat:
		return p.f, true
	}
	return 0, false
}

// AsInt returns integral numeric values as int64. Floats with a fractional part are rejected.
func (p ParamValue) AsInt() (int64, bool) {
	switch p.Kind() {
	case ParamInt:
		return p.i, true
	case ParamFloat:
		if p.f == math.Trunc(p.f) && !math.IsInf(p.f, 0) {
			return int64(p.f), true
		}
	}
	return 0, false
}

func (p ParamValue) AsBool() (bool, bool) {
	if p.Kind() == ParamBool {
		return p.b, true
	}
	return false, false
}

func (p ParamValue) AsString() (string, bool) {
	if p.Kind() == ParamString {
		return p.s, true
	}
	return "", false
}

// Canonical returns the fixed encoding used for fingerprinting: a one-letter
// type tag, a colon, and the value.
func (p ParamValue) Canonical() string {
	switch p.Kind() {
	case ParamInt:
		return "i:" + strconv.FormatInt(p.i, 10)
	case ParamFloat:
		return "f:" + strconv.FormatFloat(p.f, 'g', -1, 64)
	case ParamBool:
		return "b:" + strconv.FormatBool(p.b)
	default:
		return "s:" + p.s
	}
}

func (p ParamValue) String() string {
	switch p.Kind() {
	case ParamInt:
		return strconv.FormatInt(p.i, 10)
	case ParamFloat:
		return strconv.FormatFloat(p.f, 'g', -1, 64)
	case ParamBool:
		return strconv.FormatBool(p.b)
	default:
		return p.s
	}
}

func (p ParamValue) Equal(o ParamValue) bool {
	return p.Canonical() == o.Canonical()
}

func (p ParamValue) MarshalJSON() ([]byte, error) {
	if p.Kind() == ParamFloat && p.f == math.Trunc(p.f) && !math.IsInf(p.f, 0) {
		// keep the decimal point so the value decodes back as a float
		return []byte(strconv.FormatFloat(p.f, 'f', 1, 64)), nil
	}
	return json.Marshal(p.Any())
}

func (p *ParamValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	v, err := ParamFromAny(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p ParamValue) MarshalYAML() (any, error) {
	return p.Any(), nil
}

func (p *ParamValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parameter value must be a scalar (string, number or bool)", node.Line)
	}

	switch node.ShortTag() {
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return err
		}
		*p = Int(i)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*p = Float(f)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*p = Bool(b)
	case "!!null":
		return fmt.Errorf("line %d: parameter value is null", node.Line)
	default:
		*p = String(node.Value)
	}
	return nil
}

// Params maps generation parameter names to scalar values.
type Params map[string]ParamValue

// Keys returns the parameter names in lexicographic order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy; ParamValue is immutable so this is a full copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new Params where each layer overrides the previous ones.
func (p Params) Merge(layers ...Params) Params {
	out := p.Clone()
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Canonical encodes the parameters with sorted keys. Each key and value is
// NUL-terminated.
func (p Params) Canonical() string {
	var sb strings.Builder
	for _, k := range p.Keys() {
		sb.WriteString(k)
		sb.WriteByte(0)
		sb.WriteString(p[k].Canonical())
		sb.WriteByte(0)
	}
	return sb.String()
}

// AnyMap returns the parameters as plain Go scalars.
func (p Params) AnyMap() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Any()
	}
	return out
}

func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func (p Params) Int(key string) (int64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// String renders the parameters as "k=v" pairs in key order, for logs.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+p[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParamsFromMap converts decoded scalars into Params.
func ParamsFromMap(m map[string]any) (Params, error) {
	out := make(Params, len(m))
	for k, v := range m {
		pv, err := ParamFromAny(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		out[k] = pv
	}
	return out, nil
}

// Sweep maps a parameter name to the candidate values a pipeline iterates over.
type Sweep map[string][]ParamValue

// Keys returns the sweep keys in lexicographic order.
func (s Sweep) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Size is the number of points in the cartesian product (1 for an empty sweep).
func (s Sweep) Size() int {
	n := 1
	for _, vals := range s {
		n *= len(vals)
	}
	return n
}
