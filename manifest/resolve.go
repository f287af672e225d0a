package manifest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/wippyai/subgraph-runtime/errors"
	"github.com/wippyai/subgraph-runtime/ethabi"
)

var wasmMagic = []byte{0x00, 'a', 's', 'm'}

// LinkResolver fetches the bytes a Link points at.
type LinkResolver interface {
	Cat(ctx context.Context, link Link) ([]byte, error)
}

// DirResolver serves links from a local directory. /ipfs/<hash> maps to
// <Root>/<hash>; any other link is a path relative to Root.
type DirResolver struct {
	Root string
}

func (r DirResolver) Cat(ctx context.Context, link Link) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := strings.TrimPrefix(link.Link, ipfsPrefix)
	rel = filepath.Clean(filepath.FromSlash(strings.TrimPrefix(rel, "./")))
	if !filepath.IsLocal(rel) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "link "+link.Link+" escapes the resolver root")
	}
	data, err := os.ReadFile(filepath.Join(r.Root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(errors.PhaseLoad, "link", link.Link)
		}
		return nil, errors.Load("read "+link.Link, err)
	}
	return data, nil
}

// Resolve fetches and parses the manifest at link.
func Resolve(ctx context.Context, r LinkResolver, link Link) (*Manifest, error) {
	data, err := r.Cat(ctx, link)
	if err != nil {
		return nil, err
	}
	return Parse(data, link)
}

// ResolveABIs loads every ABI a data source's mapping names.
func ResolveABIs(ctx context.Context, r LinkResolver, ds *DataSource) (map[string]abi.ABI, error) {
	out := make(map[string]abi.ABI, len(ds.Mapping.ABIs))
	for _, ref := range ds.Mapping.ABIs {
		data, err := r.Cat(ctx, ref.File)
		if err != nil {
			return nil, err
		}
		parsed, err := ethabi.LoadABI(bytes.NewReader(data))
		if err != nil {
			var e *errors.Error
			if errors.As(err, &e) {
				e.Path = append([]string{ds.Name, "abis", ref.Name}, e.Path...)
			}
			return nil, err
		}
		out[ref.Name] = parsed
	}
	if _, ok := out[ds.Source.ABI]; !ok && ds.Source.ABI != "" {
		return nil, errors.NotFound(errors.PhaseValidate, "source ABI", ds.Source.ABI)
	}
	return out, nil
}

// ResolveMapping fetches a data source's mapping module.
func ResolveMapping(ctx context.Context, r LinkResolver, ds *DataSource) ([]byte, error) {
	data, err := r.Cat(ctx, ds.Mapping.File)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, wasmMagic) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(ds.Name, "mapping", "file").
			Detail("%s is not a WebAssembly module", ds.Mapping.File.Link).
			Build()
	}
	return data, nil
}

// ResolveSchema fetches the GraphQL schema text.
func ResolveSchema(ctx context.Context, r LinkResolver, m *Manifest) (string, error) {
	data, err := r.Cat(ctx, m.Schema.File)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
