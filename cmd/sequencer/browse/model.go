package browsecmder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
	"github.com/papercomputeco/sequencer/pkg/client"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

// chromeLines is the number of lines the view uses around the key list.
const chromeLines = 8

var selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// loadedMsg carries everything shown for one directory.
type loadedMsg struct {
	path     string
	subkeys  []string
	value    []byte
	hasValue bool
	hash     string
	err      error
}

// previewMsg carries the value of the highlighted child.
type previewMsg struct {
	path     string
	value    []byte
	hasValue bool
	subkeys  int
	err      error
}

type model struct {
	ctx    context.Context
	client *client.Client
	keys   keyMap
	help   help.Model

	path     string
	subkeys  []string
	value    []byte
	hasValue bool
	hash     string
	loading  bool

	cursor int
	offset int

	// reselect names the child to highlight once the next load lands.
	reselect string
	preview  *previewMsg

	err    error
	width  int
	height int
}

func newModel(ctx context.Context, cl *client.Client, root string) model {
	return model{
		ctx:     ctx,
		client:  cl,
		keys:    defaultKeyMap(),
		help:    help.New(),
		path:    root,
		loading: true,
	}
}

func (m model) Init() tea.Cmd {
	return m.load(m.path)
}

func (m model) load(path string) tea.Cmd {
	ctx, cl := m.ctx, m.client
	return func() tea.Msg {
		msg := loadedMsg{path: path}
		value, err := cl.GetState(ctx, path)
		switch {
		case err == nil:
			msg.value, msg.hasValue = value, true
		case !errors.Is(err, client.ErrNotFound):
			msg.err = err
			return msg
		}
		if msg.subkeys, msg.err = cl.GetSubkeys(ctx, path); msg.err != nil {
			return msg
		}
		msg.hash, msg.err = cl.StateHash(ctx, path)
		return msg
	}
}

func (m model) loadPreview() tea.Cmd {
	if len(m.subkeys) == 0 {
		return nil
	}
	ctx, cl := m.ctx, m.client
	path := m.selected()
	return func() tea.Msg {
		msg := previewMsg{path: path}
		value, err := cl.GetState(ctx, path)
		switch {
		case err == nil:
			msg.value, msg.hasValue = value, true
		case !errors.Is(err, client.ErrNotFound):
			msg.err = err
			return msg
		}
		keys, err := cl.GetSubkeys(ctx, path)
		msg.subkeys, msg.err = len(keys), err
		return msg
	}
}

// selected returns the full path of the highlighted child.
func (m model) selected() string {
	if len(m.subkeys) == 0 {
		return ""
	}
	return pathtree.Join(m.path, m.subkeys[m.cursor])
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.path = msg.path
		m.subkeys = msg.subkeys
		m.value, m.hasValue = msg.value, msg.hasValue
		m.hash = msg.hash
		m.preview = nil
		m.cursor, m.offset = 0, 0
		if i := slices.Index(m.subkeys, m.reselect); i >= 0 {
			m.cursor = i
		}
		m.reselect = ""
		m.scroll()
		return m, m.loadPreview()

	case previewMsg:
		if msg.path == m.selected() {
			m.preview = &msg
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.scroll()
			return m, m.loadPreview()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.subkeys)-1 {
			m.cursor++
			m.scroll()
			return m, m.loadPreview()
		}

	case key.Matches(msg, m.keys.Open):
		if len(m.subkeys) > 0 && !m.loading {
			m.loading = true
			return m, m.load(m.selected())
		}

	case key.Matches(msg, m.keys.Back):
		if m.path != pathtree.Root && !m.loading {
			parent, segment := pathtree.Split(m.path)
			m.loading = true
			m.reselect = segment
			return m, m.load(parent)
		}

	case key.Matches(msg, m.keys.Refresh):
		if !m.loading {
			m.loading = true
			if len(m.subkeys) > 0 {
				m.reselect = m.subkeys[m.cursor]
			}
			return m, m.load(m.path)
		}
	}
	return m, nil
}

// rows is how many subkeys fit on screen.
func (m model) rows() int {
	if m.height == 0 {
		return len(m.subkeys)
	}
	return max(m.height-chromeLines, 3)
}

func (m *model) scroll() {
	rows := m.rows()
	switch {
	case m.cursor < m.offset:
		m.offset = m.cursor
	case m.cursor >= m.offset+rows:
		m.offset = m.cursor - rows + 1
	}
}

func (m model) View() string {
	var lines []string
	lines = append(lines, style.Title.Render("sequencer state")+"  "+style.Path.Render(m.path))
	lines = append(lines, style.Dim.Render("hash "+m.hash))

	if m.hasValue {
		lines = append(lines, "value "+style.Value.Render(style.FormatValue(m.value)))
	} else {
		lines = append(lines, style.Dim.Render("no value"))
	}
	lines = append(lines, "")

	if len(m.subkeys) == 0 {
		lines = append(lines, style.Dim.Render("  (no subkeys)"))
	}
	end := min(m.offset+m.rows(), len(m.subkeys))
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+m.subkeys[i]))
		} else {
			lines = append(lines, "  "+m.subkeys[i])
		}
	}
	lines = append(lines, "")

	switch {
	case m.err != nil:
		lines = append(lines, style.Failed.Render("error: "+m.err.Error()))
	case m.loading:
		lines = append(lines, style.Dim.Render("loading..."))
	case m.preview != nil:
		lines = append(lines, m.previewLine())
	default:
		lines = append(lines, "")
	}
	lines = append(lines, m.help.View(m.keys))

	if m.width > 0 {
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, m.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) previewLine() string {
	p := m.preview
	if p.err != nil {
		return style.Failed.Render(fmt.Sprintf("%s: %v", p.path, p.err))
	}
	line := style.Path.Render(p.path)
	if p.hasValue {
		line += " = " + style.Value.Render(style.FormatValue(p.value))
	}
	if p.subkeys > 0 {
		line += style.Dim.Render(fmt.Sprintf(" (%d subkeys)", p.subkeys))
	}
	return line
}
