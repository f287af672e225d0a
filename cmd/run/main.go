// Command run loads a subgraph mapping module and calls its exports with
// arguments written into guest memory in the AssemblyScript object layout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/config"
	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/manifest"
	"github.com/wippyai/subgraph-runtime/runtime"
)

type cliOptions struct {
	wasmFile    string
	funcName    string
	args        []string
	result      string
	list        bool
	interactive bool
	manifest    string
	dataSource  string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(opts *cliOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.StringVar(&opts.wasmFile, "wasm", "", "Path to the mapping wasm file")
	fs.StringVar(&opts.funcName, "func", "", "Export to call")
	fs.StringArrayVar(&opts.args, "arg", nil, "Argument as KIND:VALUE, kinds: "+strings.Join(argKinds, ", "))
	fs.StringVar(&opts.result, "result", "", "Decode the result as: "+strings.Join(resultKinds, ", "))
	fs.BoolVar(&opts.list, "list", false, "List exported functions and exit")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "Interactive mode with TUI")
	fs.StringVar(&opts.manifest, "manifest", "", "Subgraph manifest file; its directory resolves the linked files and --wasm overrides the mapping")
	fs.StringVar(&opts.dataSource, "data-source", "", "Data source whose mapping to load (default: the first)")
	config.AddFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: run --wasm <file.wasm> --func name [--arg KIND:VALUE ...] [--result KIND]")
		fmt.Fprintln(os.Stderr, "       run --manifest <dir>/<hash> [--data-source name] --list")
		fmt.Fprintln(os.Stderr, "       run --manifest <dir>/<hash> --func name --arg params:Event:0x.. --result token:Event.arg")
		fmt.Fprintln(os.Stderr, "       run --wasm <file.wasm> -i  (interactive mode)")
		fs.PrintDefaults()
	}
	return fs
}

func run(ctx context.Context, argv []string, out io.Writer) error {
	var opts cliOptions
	fs := newFlagSet(&opts)
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.wasmFile == "" && fs.NArg() > 0 {
		opts.wasmFile = fs.Arg(0)
	}

	v, err := config.NewViper(fs)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	engine.SetLogger(logger.Named("engine"))
	asc.SetLogger(logger.Named("asc"))

	wasm, contract, err := loadWASM(ctx, &opts, out)
	if err != nil {
		return err
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(ctx, opts.wasmFile, wasm, contract, cfg.RuntimeOptions(logger))
	}

	return call(ctx, &opts, wasm, contract, cfg.RuntimeOptions(logger), logger, out)
}

// loadWASM reads the module from --wasm, or from the mapping of a data
// source in --manifest. With a manifest it also returns the contract ABI of
// that data source.
func loadWASM(ctx context.Context, opts *cliOptions, out io.Writer) ([]byte, *contractABI, error) {
	if opts.manifest == "" {
		if opts.wasmFile == "" {
			return nil, nil, fmt.Errorf("one of --wasm or --manifest is required")
		}
		data, err := readWASM(opts.wasmFile)
		return data, nil, err
	}

	dir, hash := splitManifestPath(opts.manifest)
	resolver := manifest.DirResolver{Root: dir}
	m, err := manifest.Resolve(ctx, resolver, manifest.Link{Link: "/ipfs/" + hash})
	if err != nil {
		return nil, nil, err
	}
	printManifest(out, m)
	if len(m.DataSources) == 0 {
		return nil, nil, fmt.Errorf("manifest %s has no data sources", m.ID)
	}

	ds := &m.DataSources[0]
	if opts.dataSource != "" {
		var ok bool
		if ds, ok = m.DataSource(opts.dataSource); !ok {
			return nil, nil, fmt.Errorf("data source %q not found", opts.dataSource)
		}
	}
	abis, err := manifest.ResolveABIs(ctx, resolver, ds)
	if err != nil {
		return nil, nil, err
	}
	contract := newContractABI(ds, abis)

	if opts.wasmFile != "" {
		data, err := readWASM(opts.wasmFile)
		return data, contract, err
	}
	opts.wasmFile = ds.Mapping.File.Link
	data, err := manifest.ResolveMapping(ctx, resolver, ds)
	return data, contract, err
}

func readWASM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func splitManifestPath(path string) (dir, hash string) {
	i := strings.LastIndexAny(path, `/\`)
	if i < 0 {
		return ".", path
	}
	return path[:i], path[i+1:]
}

func printManifest(out io.Writer, m *manifest.Manifest) {
	fmt.Fprintf(out, "Subgraph: %s\n", m.ID)
	if m.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(out, "Data sources: %d\n", len(m.DataSources))
	for _, ds := range m.DataSources {
		fmt.Fprintf(out, "  %s (%s", ds.Name, ds.Kind)
		if ds.Network != "" {
			fmt.Fprintf(out, ", %s", ds.Network)
		}
		fmt.Fprintf(out, ") at %s\n", ds.Source.Address.Hex())
		for _, h := range ds.Mapping.EventHandlers {
			fmt.Fprintf(out, "    %s -> %s\n", h.Event, h.Handler)
		}
	}
}

func call(ctx context.Context, opts *cliOptions, wasm []byte, contract *contractABI, rtOpts []runtime.Option, logger *zap.Logger, out io.Writer) error {
	rt, err := runtime.New(ctx, rtOpts...)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadWASM(ctx, wasm)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}
	defer mod.Close(ctx)

	if opts.list || opts.funcName == "" {
		fmt.Fprintf(out, "Module: %s (%s)\n", opts.wasmFile, rt.Backend())
		fmt.Fprintf(out, "\nExported functions:\n")
		for _, e := range mod.Exports() {
			fmt.Fprintf(out, "  %s\n", e.Signature())
		}
		if !opts.list {
			fmt.Fprintf(out, "\nUse --func to call one of them.\n")
		}
		return nil
	}

	export, ok := mod.Export(opts.funcName)
	if !ok {
		return fmt.Errorf("export %q not found", opts.funcName)
	}
	if len(opts.args) != len(export.Params) {
		return fmt.Errorf("%s takes %d arguments, got %d", export.Signature(), len(export.Params), len(opts.args))
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	c := codec{heap: inst.Heap(ctx), conv: inst.Converter(), contract: contract}
	args, err := c.encodeArgs(opts.args)
	if err != nil {
		return err
	}

	logger.Debug("calling export", zap.String("func", opts.funcName), zap.Strings("args", opts.args))
	results, err := inst.Call(ctx, opts.funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", opts.funcName, err)
	}

	if opts.result == "" || len(results) != 1 {
		fmt.Fprintf(out, "Result: %s\n", formatRaw(export.Results, results))
		return nil
	}
	s, err := c.formatResult(opts.result, results[0])
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	fmt.Fprintf(out, "Result: %s\n", s)
	return nil
}
