// Package manifest parses subgraph manifests and resolves the files they
// link to: contract ABIs, the GraphQL schema, and the mapping module.
package manifest

import (
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-yaml"
	"github.com/wippyai/subgraph-runtime/errors"
)

const ipfsPrefix = "/ipfs/"

// Link points at a file, in the IPLD form {"/": path}.
type Link struct {
	Link string `yaml:"/"`
}

type SchemaData struct {
	File Link `yaml:"file"`
}

// Source is the contract a data source watches.
type Source struct {
	Address common.Address `yaml:"-"`
	ABI     string         `yaml:"abi"`
}

// UnmarshalYAML accepts the address with or without a 0x prefix.
func (s *Source) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Address string `yaml:"address"`
		ABI     string `yaml:"abi"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	hex := strings.TrimPrefix(raw.Address, "0x")
	if len(hex) != 2*common.AddressLength || !common.IsHexAddress(hex) {
		return errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path("source", "address").
			Value(raw.Address).
			Detail("invalid contract address %q", raw.Address).
			Build()
	}
	s.Address = common.HexToAddress(hex)
	s.ABI = raw.ABI
	return nil
}

type MappingABI struct {
	Name string `yaml:"name"`
	File Link   `yaml:"file"`
}

type EventHandler struct {
	Event   string `yaml:"event"`
	Handler string `yaml:"handler"`
}

type Mapping struct {
	Kind          string         `yaml:"kind"`
	APIVersion    string         `yaml:"apiVersion"`
	Language      string         `yaml:"language"`
	Entities      []string       `yaml:"entities"`
	ABIs          []MappingABI   `yaml:"abis"`
	EventHandlers []EventHandler `yaml:"eventHandlers"`
	File          Link           `yaml:"file"`
}

type DataSource struct {
	Kind    string  `yaml:"kind"`
	Network string  `yaml:"network,omitempty"`
	Name    string  `yaml:"name"`
	Source  Source  `yaml:"source"`
	Mapping Mapping `yaml:"mapping"`
}

// Manifest is a parsed subgraph definition. Two manifests are the same
// subgraph when their Location matches.
type Manifest struct {
	ID          SubgraphID   `yaml:"-"`
	Location    string       `yaml:"-"`
	SpecVersion string       `yaml:"specVersion"`
	Description string       `yaml:"description,omitempty"`
	Repository  string       `yaml:"repository,omitempty"`
	Schema      SchemaData   `yaml:"schema"`
	DataSources []DataSource `yaml:"dataSources"`
}

// Parse reads a manifest loaded from link. The ID is the link without its
// /ipfs/ prefix and the location is the link itself.
func Parse(data []byte, link Link) (*Manifest, error) {
	if !utf8.Valid(data) {
		return nil, errors.InvalidUTF8(errors.PhaseParse, []string{"manifest"}, data)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.ParseFailed("manifest", err)
	}
	if raw == nil {
		return nil, errors.InvalidData(errors.PhaseParse, []string{"manifest"}, "manifest is not a YAML mapping")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.ParseFailed("manifest", err)
	}

	id, err := NewSubgraphID(strings.TrimPrefix(link.Link, ipfsPrefix))
	if err != nil {
		return nil, err
	}
	m.ID = id
	m.Location = link.Link
	return &m, nil
}

// DataSource returns the data source with the given name.
func (m *Manifest) DataSource(name string) (*DataSource, bool) {
	for i := range m.DataSources {
		if m.DataSources[i].Name == name {
			return &m.DataSources[i], true
		}
	}
	return nil, false
}
