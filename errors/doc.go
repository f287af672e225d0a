// Package errors provides structured error types for the subgraph runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a field path, Go/AssemblyScript type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Path("params", "0").
//		GoType("ethabi.Uint").
//		AscType("Enum<EthereumValueKind>").
//		Detail("expected uint256").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, ptr, 16, memSize)
//	err := errors.UnknownDiscriminant(errors.PhaseDecode, path, 42, "StoreValueKind")
//
// Errors compare with errors.Is by Phase and Kind. IsKind matches a Kind in
// any phase along the cause chain.
package errors
