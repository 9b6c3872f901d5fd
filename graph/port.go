// Package graph provides the core workflow execution engine: typed node
// ports, a graph model with validation, a level-parallel scheduler, and a
// ForEach fan-out engine for per-item sub-graph execution.
package graph

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// PortType identifies the value shape a port accepts or produces.
//
// "json" and "object" are equivalent at runtime: both accept any decoded
// JSON value and both trigger a parse attempt when fed a string. "any"
// disables type checking entirely on that port.
type PortType string

// Port type constants, per the data model.
const (
	PortString  PortType = "string"
	PortNumber  PortType = "number"
	PortBoolean PortType = "boolean"
	PortArray   PortType = "array"
	PortObject  PortType = "object"
	PortJSON    PortType = "json"
	PortAny     PortType = "any"
)

// normalized treats "object" and "json" as the same wire type.
func (t PortType) normalized() PortType {
	if t == PortObject {
		return PortJSON
	}
	return t
}

// PortDescriptor declares one input or output port on a node.
//
// Required, Default, and Options together determine the effective-input
// precedence rules in resolve.go: a required port with no supplied value
// fails the node with MissingRequiredInput; an optional port falls back to
// Default, then to absence.
type PortDescriptor struct {
	Name     string
	Type     PortType
	Required bool
	Default  any
	// Options, when non-nil, is a finite set of admissible values. A
	// supplied value must equal one member (by ==, or by JSON-marshaled
	// string comparison for non-comparable types such as maps/slices).
	Options []any
}

// CheckOptions reports whether value is a member of d.Options. A nil or
// empty Options set admits any value.
func (d PortDescriptor) CheckOptions(value any) bool {
	if len(d.Options) == 0 {
		return true
	}
	for _, opt := range d.Options {
		if valuesEqual(opt, value) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if a == b {
		return true
	}
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	return aerr == nil && berr == nil && string(ab) == string(bb)
}

// typesCompatible implements the connection type-compatibility rule: either
// side is "any", the (normalized) types are equal, source "string" may feed
// a target "json"/"object" (parse-on-read), and source "array" may feed a
// target "array".
func typesCompatible(from, to PortType) bool {
	if from == PortAny || to == PortAny {
		return true
	}
	f, t := from.normalized(), to.normalized()
	if f == t {
		return true
	}
	if f == PortString && t == PortJSON {
		return true
	}
	return false
}

// coerce applies the one implicit conversion the spec allows: a string value
// feeding a json/object-typed port is parsed as JSON. Any other value is
// returned unchanged, whatever its type; coerce itself only ever returns
// TypeCoercionError for a failed parse. resolveInputs reports TypeMismatch
// only for a value outside the port's Options, so a number on a string port
// (or a string on a number port) reaches the node as it is.
func coerce(value any, target PortType) (any, error) {
	target = target.normalized()
	if target == PortAny {
		return value, nil
	}
	s, isString := value.(string)
	if !isString || target != PortJSON {
		return value, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err == nil {
		return decoded, nil
	}

	// Best-effort repair of near-miss JSON (trailing commas, unquoted
	// keys, smart quotes) before giving up — a common shape of failure
	// when the string originated from an LLM response.
	repaired, rerr := jsonrepair.JSONRepair(s)
	if rerr == nil {
		if err := json.Unmarshal([]byte(repaired), &decoded); err == nil {
			return decoded, nil
		}
	}
	return nil, &TypeCoercionError{Value: s, Target: target}
}

// IsEmpty implements the "empty" predicate shared by Merge and PassThrough:
// nil/absent, an empty array, an empty object, or a whitespace-only string.
// Zero, false, and 0.0 are explicitly NOT empty.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
