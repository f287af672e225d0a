package engine

import "strings"

// ValueType is a core WebAssembly value type.
type ValueType byte

const (
	ValueTypeI32 ValueType = iota + 1
	ValueTypeI64
	ValueTypeF32
	ValueTypeF64
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Export describes an exported function.
type Export struct {
	Name    string
	Params  []ValueType
	Results []ValueType
}

// Signature renders the export as "name(i32, i32) -> i32".
func (e Export) Signature() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('(')
	for i, p := range e.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	switch len(e.Results) {
	case 0:
	case 1:
		b.WriteString(" -> ")
		b.WriteString(e.Results[0].String())
	default:
		b.WriteString(" -> (")
		for i, r := range e.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(r.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}
