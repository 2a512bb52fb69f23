package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/haasonsaas/darkan/pkg/store"
)

// ValueTypeError rejects a sample whose value is not a string, integer or float.
type ValueTypeError struct {
	Key  string
	Arg  string
	Type string
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("unknown value type %s for value %s.%s", e.Type, e.Key, e.Arg)
}

// Classify turns one wire sample into a typed store.Value.
func Classify(s Sample) (store.Value, error) {
	raw := bytes.TrimSpace(s.Val)
	kind, err := inferKind(raw)
	if err != nil {
		return store.Value{}, &ValueTypeError{Key: s.Key, Arg: s.Arg, Type: err.Error()}
	}

	if s.Type != "" {
		declared := store.ValueKind(s.Type)
		switch {
		case declared == kind:
		case declared == store.KindFloat && kind == store.KindInteger:
			kind = store.KindFloat
		case declared == store.KindString || declared == store.KindInteger || declared == store.KindFloat:
			return store.Value{}, &ValueTypeError{Key: s.Key, Arg: s.Arg, Type: fmt.Sprintf("%s (declared %s)", kind, declared)}
		default:
			return store.Value{}, &ValueTypeError{Key: s.Key, Arg: s.Arg, Type: s.Type}
		}
	}

	switch kind {
	case store.KindString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return store.Value{}, &ValueTypeError{Key: s.Key, Arg: s.Arg, Type: "string"}
		}
		return store.StringValue(s.Key, s.Arg, v), nil
	case store.KindInteger:
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err == nil {
			return store.IntegerValue(s.Key, s.Arg, v), nil
		}
		// Undeclared integers beyond int64 are stored as floats.
		if !errors.Is(err, strconv.ErrRange) || declared(s, store.KindInteger) {
			return store.Value{}, &ValueTypeError{Key: s.Key, Arg: s.Arg, Type: "integer out of range"}
		}
		fallthrough
	default:
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return store.Value{}, &ValueTypeError{Key: s.Key, Arg: s.Arg, Type: "float out of range"}
		}
		return store.FloatValue(s.Key, s.Arg, v), nil
	}
}

func declared(s Sample, kind store.ValueKind) bool {
	return store.ValueKind(s.Type) == kind
}

// inferKind maps the JSON token type onto the three allowed kinds. The error
// text names the rejected JSON type.
func inferKind(raw []byte) (store.ValueKind, error) {
	if len(raw) == 0 {
		return "", errors.New("missing")
	}
	switch c := raw[0]; {
	case c == '"':
		return store.KindString, nil
	case c == '-' || (c >= '0' && c <= '9'):
		if bytes.ContainsAny(raw, ".eE") {
			return store.KindFloat, nil
		}
		return store.KindInteger, nil
	case c == 't' || c == 'f':
		return "", errors.New("bool")
	case c == 'n':
		return "", errors.New("null")
	case c == '{':
		return "", errors.New("object")
	case c == '[':
		return "", errors.New("array")
	default:
		return "", errors.New("unknown")
	}
}
