package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Extra-field keys consumed by reporting. Any other key is stored and
// returned untouched.
const (
	KeyStoryPoints = "sp"
	KeyLOCAdded    = "loc(+)"
	KeyLOCRemoved  = "loc(-)"
	KeyLOC         = "loc"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBool
	// KindRaw holds arrays and objects as compact JSON.
	KindRaw
)

// Value is a single typed extra-field value.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
	Raw  json.RawMessage
}

func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Null() Value            { return Value{Kind: KindNull} }

// Float returns the numeric value and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Equal compares two values by kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindRaw:
		return bytes.Equal(v.Raw, o.Raw)
	}
	return true
}

// Serialize renders the value as JSON text, the form stored in history.
func (v Value) Serialize() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		b, _ := json.Marshal(v.Str)
		return string(b)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindRaw:
		return string(v.Raw)
	}
	return "null"
}

func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.Serialize()), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decoding extra field value: %w", err)
	}
	switch x := decoded.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case string:
		*v = String(x)
	case bool:
		*v = Bool(x)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return fmt.Errorf("compacting extra field value: %w", err)
		}
		*v = Value{Kind: KindRaw, Raw: buf.Bytes()}
	}
	return nil
}

// ExtraFields is the open key to typed-value map attached to a task.
type ExtraFields map[string]Value

// Keys returns the keys in ascending order.
func (e ExtraFields) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (e ExtraFields) Clone() ExtraFields {
	if e == nil {
		return nil
	}
	out := make(ExtraFields, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// StoryPoints returns the numeric sp value, if any.
func (e ExtraFields) StoryPoints() (float64, bool) {
	v, ok := e[KeyStoryPoints]
	if !ok {
		return 0, false
	}
	return v.Float()
}

// LinesOfCode returns loc(+) + loc(-) when either is numeric, falling back
// to loc.
func (e ExtraFields) LinesOfCode() (float64, bool) {
	added, okAdded := e[KeyLOCAdded].Float()
	removed, okRemoved := e[KeyLOCRemoved].Float()
	if okAdded || okRemoved {
		return added + removed, true
	}
	return e[KeyLOC].Float()
}
