package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	ctx      context.Context
	err      error
	rt       *runtime.Runtime
	instance *runtime.Instance
	module   *runtime.Module
	rtOpts   []runtime.Option
	contract *contractABI
	wasm     []byte
	filename string
	result   string
	funcs    []engine.Export
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(ctx context.Context, filename string, wasm []byte, contract *contractABI, rtOpts []runtime.Option) *interactiveModel {
	return &interactiveModel{
		ctx:      ctx,
		filename: filename,
		wasm:     wasm,
		contract: contract,
		rtOpts:   rtOpts,
		state:    stateSelectFunc,
	}
}

type loadedMsg struct {
	err error
	rt  *runtime.Runtime
	mod *runtime.Module
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	rt, err := runtime.New(m.ctx, m.rtOpts...)
	if err != nil {
		return loadedMsg{err: err}
	}
	mod, err := rt.LoadWASM(m.ctx, m.wasm)
	if err != nil {
		rt.Close(m.ctx)
		return loadedMsg{err: err}
	}
	return loadedMsg{rt: rt, mod: mod}
}

func (m *interactiveModel) close() {
	if m.instance != nil {
		m.instance.Close(m.ctx)
	}
	if m.rt != nil {
		m.rt.Close(m.ctx)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				m.prepareInputs()
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.module = msg.mod
		m.funcs = msg.mod.Exports()

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// prepareInputs builds one field per parameter and a final field for the
// result kind.
func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Params)+1)
	for i, p := range f.Params {
		ti := textinput.New()
		ti.Placeholder = placeholder(p)
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		m.inputs[i] = ti
	}
	ti := textinput.New()
	ti.Placeholder = "raw"
	ti.Prompt = "result: "
	ti.Width = 40
	m.inputs[len(f.Params)] = ti

	m.focusIdx = 0
	m.inputs[0].Focus()
}

func placeholder(t engine.ValueType) string {
	if t == engine.ValueTypeI32 {
		return "i32:0, string:text, bytes:0x.., bigint:1"
	}
	return t.String() + ":0"
}

func (m *interactiveModel) callFunction() tea.Msg {
	if m.instance == nil {
		if m.module == nil {
			return callResultMsg{err: fmt.Errorf("module not loaded")}
		}
		inst, err := m.module.Instantiate(m.ctx)
		if err != nil {
			return callResultMsg{err: err}
		}
		m.instance = inst
	}

	f := m.funcs[m.selected]
	raw := make([]string, len(f.Params))
	for i := range f.Params {
		arg := m.inputs[i].Value()
		if !strings.Contains(arg, ":") {
			arg = f.Params[i].String() + ":" + arg
		}
		raw[i] = arg
	}
	resultKind := strings.TrimSpace(m.inputs[len(f.Params)].Value())

	c := codec{heap: m.instance.Heap(m.ctx), conv: m.instance.Converter(), contract: m.contract}
	args, err := c.encodeArgs(raw)
	if err != nil {
		return callResultMsg{err: err}
	}
	results, err := m.instance.Call(m.ctx, f.Name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	if resultKind == "" || resultKind == "raw" || len(results) != 1 {
		return callResultMsg{result: formatRaw(f.Results, results)}
	}
	s, err := c.formatResult(resultKind, results[0])
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: s}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.module == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Mapping Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("The module exports no functions.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f.Signature()))
			} else {
				b.WriteString("  " + formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", formatFunc(f)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatFunc(f engine.Export) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = typeStyle.Render(p.String())
	}
	result := ""
	if len(f.Results) > 0 {
		rs := make([]string, len(f.Results))
		for i, r := range f.Results {
			rs[i] = r.String()
		}
		result = " -> " + typeStyle.Render(strings.Join(rs, ", "))
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(ctx context.Context, filename string, wasm []byte, contract *contractABI, rtOpts []runtime.Option) error {
	p := tea.NewProgram(newInteractiveModel(ctx, filename, wasm, contract, rtOpts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
