// Package tui is a terminal rendition of the editable table: a bubbletea
// program over one core.Session.
//
// Every keystroke in edit mode goes straight to Session.SetCell, so the
// session always holds what is on screen. Opening another file runs the
// ingest in a command; when it lands the table is replaced, or on failure
// the message is shown and the old table stays.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/csvedit/internal/core"
)

type mode int

const (
	modeNormal mode = iota
	modeEdit
	modeOpen
)

// ingestDoneMsg carries the outcome of an ingest started by ingestCmd.
type ingestDoneMsg struct {
	path string
	view core.View
	err  error
}

// Model is the bubbletea model of the editor.
type Model struct {
	sess     *core.Session
	ingestor core.Ingestor
	ctx      context.Context

	view    core.View // last snapshot of sess
	path    string    // file the current table came from
	loading string    // file being ingested, if any

	mode    mode
	cx, cy  int // cursor column and row
	scrollX int
	scrollY int
	width   int
	height  int

	cell   textinput.Model
	prompt textinput.Model
	keys   keyMap
	help   help.Model
	notice string // transient status line text
}

// New returns a model editing sess. If path is not empty it is ingested
// when the program starts.
func New(ctx context.Context, sess *core.Session, in core.Ingestor, path string) Model {
	cell := textinput.New()
	cell.Prompt = ""
	cell.CharLimit = 0

	prompt := textinput.New()
	prompt.Prompt = "open: "
	prompt.Placeholder = "path/to/file.csv"

	return Model{
		sess:     sess,
		ingestor: in,
		ctx:      ctx,
		view:     sess.Snapshot(),
		loading:  path,
		cell:     cell,
		prompt:   prompt,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

// Init starts the initial ingest, if any.
func (m Model) Init() tea.Cmd {
	if m.loading == "" {
		return nil
	}
	return m.ingestCmd(m.loading)
}

// ingestCmd reads path through the session in the background.
func (m Model) ingestCmd(path string) tea.Cmd {
	sess, in, ctx := m.sess, m.ingestor, m.ctx
	return func() tea.Msg {
		view, err := IngestPath(ctx, sess, in, path)
		return ingestDoneMsg{path: path, view: view, err: err}
	}
}

// IngestPath opens path and ingests it into sess. The declared type comes
// from the file extension, the way a browser would label it.
func IngestPath(ctx context.Context, sess *core.Session, in core.Ingestor, path string) (core.View, error) {
	f, err := os.Open(path)
	if err != nil {
		sess.Fail(fmt.Sprintf("Cannot open %s.", filepath.Base(path)))
		return sess.Snapshot(), fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var size int64
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}

	return sess.Ingest(ctx, in, core.File{
		Name:        filepath.Base(path),
		ContentType: core.DetectContentType(path),
		Size:        size,
		Body:        f,
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ingestDoneMsg:
		return m.ingestDone(msg), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeOpen:
			return m.updateOpen(msg)
		default:
			return m.updateNormal(msg)
		}
	}

	// Cursor blink and other input housekeeping.
	var cmd tea.Cmd
	switch m.mode {
	case modeEdit:
		m.cell, cmd = m.cell.Update(msg)
	case modeOpen:
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

func (m Model) ingestDone(msg ingestDoneMsg) Model {
	if msg.path == m.loading {
		m.loading = ""
	}
	if errors.Is(msg.err, core.ErrSuperseded) {
		return m
	}

	m.view = m.sess.Snapshot()
	if msg.err == nil {
		m.path = msg.path
		m.cx, m.cy = 0, 0
		m.scrollX, m.scrollY = 0, 0
		m.notice = fmt.Sprintf("loaded %s", filepath.Base(msg.path))
		// An edit in progress targeted the old table.
		if m.mode == modeEdit {
			m.leaveEdit()
		}
		return m
	}
	m.notice = ""
	m.clampCursor()
	m.keepCursorVisible()
	return m
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows, cols := m.view.Table.Len(), len(m.view.Table.Columns)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cy > 0 {
			m.cy--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cy < rows-1 {
			m.cy++
		}
	case key.Matches(msg, m.keys.Left):
		if m.cx > 0 {
			m.cx--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cx < cols-1 {
			m.cx++
		}
	case key.Matches(msg, m.keys.Home):
		m.cx = 0
	case key.Matches(msg, m.keys.End):
		if cols > 0 {
			m.cx = cols - 1
		}
	case key.Matches(msg, m.keys.Edit):
		if m.view.HasTable() {
			cmd := m.enterEdit()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Open):
		m.mode = modeOpen
		m.prompt.SetValue(m.path)
		m.prompt.CursorEnd()
		cmd := m.prompt.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Dismiss):
		m.sess.ClearError()
		m.view = m.sess.Snapshot()
	}
	m.keepCursorVisible()
	return m, nil
}

func (m *Model) enterEdit() tea.Cmd {
	m.mode = modeEdit
	m.notice = ""
	m.cell.SetValue(m.view.Table.Cell(m.cy, m.currentColumn()))
	m.cell.CursorEnd()
	return m.cell.Focus()
}

func (m *Model) leaveEdit() {
	m.mode = modeNormal
	m.cell.Blur()
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.leaveEdit()
		return m, nil
	case "enter":
		m.leaveEdit()
		if m.cy < m.view.Table.Len()-1 {
			m.cy++
		}
		m.keepCursorVisible()
		return m, nil
	case "tab":
		m.leaveEdit()
		if m.cx < len(m.view.Table.Columns)-1 {
			m.cx++
		}
		m.keepCursorVisible()
		return m, nil
	}

	var cmd tea.Cmd
	m.cell, cmd = m.cell.Update(msg)

	col := m.currentColumn()
	if value := m.cell.Value(); value != m.view.Table.Cell(m.cy, col) {
		t, version, err := m.sess.SetCell(m.view.Version, m.cy, col, value)
		if err != nil {
			// The table was replaced underneath us.
			m.leaveEdit()
			m.view = m.sess.Snapshot()
			m.clampCursor()
			m.notice = core.MapError(err).Message
			return m, nil
		}
		m.view.Table, m.view.Version = t, version
	}
	return m, cmd
}

func (m Model) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeNormal
		m.prompt.Blur()
		return m, nil
	case "enter":
		path := m.prompt.Value()
		m.mode = modeNormal
		m.prompt.Blur()
		if path == "" {
			return m, nil
		}
		m.loading = path
		m.notice = ""
		return m, m.ingestCmd(path)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) currentColumn() core.Column {
	if m.cx < len(m.view.Table.Columns) {
		return m.view.Table.Columns[m.cx]
	}
	return ""
}

func (m *Model) clampCursor() {
	rows, cols := m.view.Table.Len(), len(m.view.Table.Columns)
	m.cx = clamp(m.cx, 0, cols-1)
	m.cy = clamp(m.cy, 0, rows-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

// Run starts the editor on the terminal and blocks until it exits.
func Run(ctx context.Context, in core.Ingestor, path string) error {
	sess := core.NewSession("terminal")
	p := tea.NewProgram(New(ctx, sess, in, path), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
