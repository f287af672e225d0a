package manifest

import (
	"github.com/wippyai/subgraph-runtime/errors"
)

const (
	maxIDLength   = 46
	maxNameLength = 255
)

// SubgraphID is the content hash a subgraph was deployed from: at most 46
// ASCII letters and digits.
type SubgraphID string

func NewSubgraphID(s string) (SubgraphID, error) {
	if len(s) > maxIDLength {
		return "", errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Value(s).
			Detail("subgraph id longer than %d characters", maxIDLength).
			Build()
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) {
			return "", errors.New(errors.PhaseValidate, errors.KindInvalidInput).
				Value(s).
				Detail("subgraph id %q has invalid character at %d", s, i).
				Build()
		}
	}
	return SubgraphID(s), nil
}

func (id SubgraphID) String() string { return string(id) }

// SubgraphName is a human-readable name such as "org/token-tracker".
type SubgraphName string

// NewSubgraphName accepts 1 to 255 characters of letters, digits, '-', '_'
// and '/', starting and ending with a letter or digit.
func NewSubgraphName(s string) (SubgraphName, error) {
	invalid := func(detail string) error {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Value(s).
			Detail("subgraph name %q: %s", s, detail).
			Build()
	}
	if len(s) < 1 || len(s) > maxNameLength {
		return "", invalid("length must be between 1 and 255")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '-' && c != '_' && c != '/' {
			return "", invalid("invalid character")
		}
	}
	if !isAlnum(s[0]) || !isAlnum(s[len(s)-1]) {
		return "", invalid("must start and end with a letter or digit")
	}
	return SubgraphName(s), nil
}

func (n SubgraphName) String() string { return string(n) }

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
