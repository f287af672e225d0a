package ethabi

// ValueKind is the discriminant of an ABI value slot in guest memory.
// The numbering is part of the guest contract.
type ValueKind uint32

const (
	KindAddress ValueKind = iota
	KindFixedBytes
	KindBytes
	KindInt
	KindUint
	KindBool
	KindString
	KindFixedArray
	KindArray
)

func (k ValueKind) Known() bool {
	return k <= KindArray
}

func (k ValueKind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindFixedBytes:
		return "fixed_bytes"
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFixedArray:
		return "fixed_array"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}
